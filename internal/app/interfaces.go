package app

import (
	"github.com/robfig/cron/v3"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/auth"
	"github.com/silmarabolos/storefront/internal/catalog"
	"github.com/silmarabolos/storefront/internal/whatsapp"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// CatalogProvider provides the product catalog
type CatalogProvider interface {
	Catalog() *catalog.FallbackService
}

// OrdersProvider provides WhatsApp order links
type OrdersProvider interface {
	Orders() *whatsapp.Orders
}

// AuthProvider provides admin login
type AuthProvider interface {
	Auth() *auth.Authenticator
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// StatusProvider reports the health of the remote backend
type StatusProvider interface {
	RemoteStatus() RemoteStatus
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	ConfigProvider
	CatalogProvider
	OrdersProvider
	AuthProvider
	SchedulerProvider
	StatusProvider

	// InitDb recreates the remote schema
	InitDb() error
	// ProbeRemote checks the remote backend now and records the result
	ProbeRemote() RemoteStatus
}
