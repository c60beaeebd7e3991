package adminapi

import (
	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/internal/webserver"
)

func registerStatusRoutes() {
	webserver.PublicGET("/status", getStatus)
}

func getStatus(c echo.Context) error {
	appctx := GetAppContext(c)
	var chain []string
	for _, b := range appctx.Catalog().Backends() {
		chain = append(chain, b.Name())
	}
	return ok(c, map[string]interface{}{
		"backends": chain,
		"remote":   appctx.RemoteStatus(),
	})
}
