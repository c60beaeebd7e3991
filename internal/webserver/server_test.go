package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	PublicGET("/ping", func(c echo.Context) error {
		return OK(c, c.Get(AppContextKey))
	})
	ApiGET("/whoami", func(c echo.Context) error {
		id, _ := CurrentIdentity(c)
		return OK(c, id)
	})
}

func newServer(t *testing.T, staticDir string) *Server {
	t.Helper()
	return NewServer(Options{
		Config:    config.DefaultAppConfig(),
		AppCtx:    "appctx-value",
		JWTSecret: []byte("secret"),
		StaticDir: staticDir,
	})
}

func serve(s *Server, req *http.Request) (*httptest.ResponseRecorder, Response) {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestPublicRoute(t *testing.T) {
	s := newServer(t, "")
	rec, resp := serve(s, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "appctx-value", resp.Data)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newServer(t, "")
	rec, resp := serve(s, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestAdminRouteNeedsJWT(t *testing.T) {
	s := newServer(t, "")
	rec, resp := serve(s, httptest.NewRequest(http.MethodGet, "/api/admin/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "Silmara",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	rec, resp = serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"username": "Silmara", "role": "admin"}, resp.Data)
}

func TestStaticImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "1_bolo.jpg"), []byte("jpg"), 0o644))

	s := newServer(t, dir)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/1_bolo.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpg", rec.Body.String())
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Validate(&auth.Credentials{Username: "x"}))
	assert.NoError(t, v.Validate(&auth.Credentials{Username: "x", Password: "y"}))
}
