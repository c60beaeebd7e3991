package app

import (
	"context"
	"errors"
	"time"

	"github.com/silmarabolos/storefront/internal/catalog/remote"
	"github.com/silmarabolos/storefront/internal/domain"
	"go.uber.org/zap"
)

// checkProducts makes sure the local store holds a catalog. An empty store is
// seeded with the default products on first load.
func (a *Application) checkProducts(ctx context.Context) {
	items, err := a.local.Load(ctx)
	if err != nil {
		zap.L().Error("failed to load local catalog", zap.String("namespace", "app"), zap.Error(err))
		return
	}
	zap.L().Info("local catalog ready",
		zap.String("namespace", "app"),
		zap.Int("products", len(items)))
}

// InitDb drops and recreates the remote product table. Mongo collections are
// schemaless and only need the name index, which is created on connect.
func (a *Application) InitDb() error {
	if a.docs == nil {
		return domain.ErrBackendUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch s := a.docs.(type) {
	case *remote.GormStore:
		if err := s.Reset(ctx); err != nil {
			return err
		}
		zap.L().Info("remote product table recreated", zap.String("namespace", "app"), zap.String("backend", s.Name()))
		return nil
	case *remote.MongoStore:
		zap.L().Info("mongo collection ready", zap.String("namespace", "app"))
		return nil
	default:
		return errors.New("unsupported remote store")
	}
}
