package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/internal/app"
	"github.com/silmarabolos/storefront/internal/auth"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/silmarabolos/storefront/internal/webserver"
	"go.uber.org/zap"
)

var initOnce sync.Once

// Init registers every API route with the web server
func Init() {
	initOnce.Do(func() {
		registerCatalogRoutes()
		registerAuthRoutes()
		registerStatusRoutes()
		registerProductRoutes()
	})
}

// GetAppContext returns the application context injected by the web server
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func created(c echo.Context, data interface{}) error {
	return webserver.Created(c, data)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return webserver.Paged(c, data, total, page, pageSize)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

// failErr maps catalog and auth errors to an HTTP answer.
func failErr(c echo.Context, err error) error {
	var ve *domain.ValidationError
	var ue *domain.UploadError
	switch {
	case errors.As(err, &ve):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", ve.Error(), map[string]string{"field": ve.Field})
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	case errors.As(err, &ue):
		return fail(c, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload image", ue.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		return fail(c, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "Catalog is unavailable", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	default:
		zap.L().Error("unhandled api error", zap.String("namespace", "api"), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", err.Error())
	}
}

// parsePagination reads page and perPage (or legacy pageSize) query parameters.
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	raw := c.QueryParam("perPage")
	if raw == "" {
		raw = c.QueryParam("pageSize")
	}
	if ps, err := strconv.Atoi(raw); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", &domain.ValidationError{Field: "id", Message: "invalid product id"}
	}
	return id, nil
}

// filterProducts applies the category and case-insensitive name search filters.
func filterProducts(items []domain.Product, category, q string) ([]domain.Product, error) {
	var cat domain.Category
	if strings.TrimSpace(category) != "" {
		var err error
		if cat, err = domain.ParseCategory(category); err != nil {
			return nil, err
		}
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		if cat != "" && p.Category != cat {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
