package adminapi

import (
	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/silmarabolos/storefront/internal/webserver"
)

// productView is a product as the storefront shows it, with its order link
type productView struct {
	domain.Product
	OrderURL string `json:"orderURL"`
}

func registerCatalogRoutes() {
	webserver.PublicGET("/catalog/products", listCatalog)
	webserver.PublicGET("/catalog/products/:id", getCatalogProduct)
	webserver.PublicGET("/catalog/products/:id/order", getOrderLink)
	webserver.PublicGET("/catalog/order", getCustomOrderLink)
}

func listCatalog(c echo.Context) error {
	appctx := GetAppContext(c)
	items, err := appctx.Catalog().ListProducts(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	items, err = filterProducts(items, c.QueryParam("category"), c.QueryParam("q"))
	if err != nil {
		return failErr(c, err)
	}
	views := make([]productView, 0, len(items))
	for _, p := range items {
		views = append(views, productView{Product: p, OrderURL: appctx.Orders().OrderLink(p.Name)})
	}
	return ok(c, views)
}

func getCatalogProduct(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return failErr(c, err)
	}
	appctx := GetAppContext(c)
	p, err := appctx.Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, productView{Product: p, OrderURL: appctx.Orders().OrderLink(p.Name)})
}

func getOrderLink(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return failErr(c, err)
	}
	appctx := GetAppContext(c)
	p, err := appctx.Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]string{"url": appctx.Orders().OrderLink(p.Name)})
}

func getCustomOrderLink(c echo.Context) error {
	return ok(c, map[string]string{"url": GetAppContext(c).Orders().CustomOrderLink()})
}
