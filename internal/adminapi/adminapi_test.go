package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/app"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/silmarabolos/storefront/internal/webserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://shop.test"

type envelope struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Meta    *webserver.PageMeta  `json:"meta"`
	Error   *webserver.ErrorBody `json:"error"`
}

type testServer struct {
	t     *testing.T
	srv   *webserver.Server
	app   *app.Application
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = dir
	cfg.Logger.Mode = "production"
	cfg.Remote.DSN = filepath.Join(dir, "catalog.db")
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Storage.Driver = "disk"
	cfg.Storage.Dir = filepath.Join(dir, "objects")
	cfg.Storage.BaseURL = testBaseURL
	cfg.Local.Path = ""
	cfg.Auth.Secret = "test-secret"

	a := app.NewApplication(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(a.Release)

	Init()
	srv := webserver.NewServer(webserver.Options{
		Config:    cfg,
		AppCtx:    a,
		JWTSecret: a.Auth().Secret(),
		StaticDir: a.ObjectDir(),
	})
	return &testServer{t: t, srv: srv, app: a}
}

func (ts *testServer) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	if ts.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Echo().ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "application/json") {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (ts *testServer) json(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ts.do(req)
}

func (ts *testServer) multipart(method, path string, fields map[string]string, filename, contentType string, file []byte) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ts.t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(ts.t, err)
		_, err = part.Write(file)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return ts.do(req)
}

func (ts *testServer) login() {
	ts.t.Helper()
	rec, env := ts.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "Silmara", "password": "231523"})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(ts.t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(ts.t, session.Token)
	ts.token = session.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "Silmara", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	rec, _ = ts.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "Silmara"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.login()
	rec, env = ts.json(http.MethodGet, "/api/admin/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Silmara", decode[map[string]string](t, env.Data)["username"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.json(http.MethodGet, "/api/admin/products", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	ts.token = "not-a-jwt"
	rec, _ = ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": "x", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec, env := ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{
		"name": "Bolo de Cenoura", "price": 30.0, "category": "cake", "description": "com chocolate",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Product](t, env.Data)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 30.0, created.Price)
	assert.False(t, created.CreatedAt.IsZero())

	rec, env = ts.json(http.MethodPut, "/api/admin/products/"+created.ID, map[string]interface{}{"price": 10.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Product](t, env.Data)
	assert.Equal(t, 10.5, updated.Price)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	require.NotNil(t, updated.UpdatedAt)

	rec, _ = ts.json(http.MethodGet, "/api/admin/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.json(http.MethodDelete, "/api/admin/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.json(http.MethodGet, "/api/admin/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateProductValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec, _ := ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": "Bolo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": "Bolo", "price": -2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	rec, _ = ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": "Coxinha", "price": 5, "category": "salgado"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProductWithImage(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec, env := ts.multipart(http.MethodPost, "/api/admin/products",
		map[string]string{"name": "Brigadeiro", "price": "2,99", "category": "sweet"},
		"brigadeiro gourmet.png", "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[domain.Product](t, env.Data)
	assert.Equal(t, 2.99, p.Price)
	assert.Equal(t, domain.CategorySweet, p.Category)
	require.True(t, strings.HasPrefix(p.ImageURL, testBaseURL+"/images/"), p.ImageURL)
	assert.True(t, strings.HasSuffix(p.ImageURL, "_brigadeirogourmet.png"))

	rec, _ = ts.do(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(p.ImageURL, testBaseURL), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestUpdateProductMultipartPartial(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	_, env := ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": "Quindim", "price": 4, "category": "sweet"})
	p := decode[domain.Product](t, env.Data)

	rec, env := ts.multipart(http.MethodPut, "/api/admin/products/"+p.ID,
		map[string]string{"description": "gema e coco"}, "q.jpg", "image/jpeg", []byte("jpg"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	up := decode[domain.Product](t, env.Data)
	assert.Equal(t, "Quindim", up.Name)
	assert.Equal(t, 4.0, up.Price)
	assert.Equal(t, "gema e coco", up.Description)
	assert.True(t, strings.HasSuffix(up.ImageURL, "_q.jpg"))
}

func TestUploadImageRejects(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec, env := ts.multipart(http.MethodPost, "/api/admin/images", nil, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	rec, _ = ts.multipart(http.MethodPost, "/api/admin/images", nil, "notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte{1}, domain.MaxImageSize+1)
	rec, _ = ts.multipart(http.MethodPost, "/api/admin/images", nil, "huge.jpg", "image/jpeg", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = ts.multipart(http.MethodPost, "/api/admin/images", nil, "ok.jpg", "image/jpeg", []byte("jpg"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, env.Data)["url"], testBaseURL+"/images/"))
}

func TestPublicCatalog(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	for _, in := range []map[string]interface{}{
		{"name": "Pudim", "price": 30, "category": "sweet"},
		{"name": "Bolo de Chocolate", "price": 45.99, "category": "cake"},
		{"name": "Brigadeiros Gourmet", "price": 2.99, "category": "sweet"},
	} {
		rec, _ := ts.json(http.MethodPost, "/api/admin/products", in)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	ts.token = ""

	rec, env := ts.json(http.MethodGet, "/api/catalog/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]productView](t, env.Data)
	require.Len(t, items, 3)
	assert.Equal(t, "Bolo de Chocolate", items[0].Name)
	assert.Equal(t, "Brigadeiros Gourmet", items[1].Name)
	assert.Equal(t, "Pudim", items[2].Name)
	assert.Contains(t, items[0].OrderURL, "https://wa.me/5542999530903?text=")

	_, env = ts.json(http.MethodGet, "/api/catalog/products?category=sweet&q=brig", nil)
	items = decode[[]productView](t, env.Data)
	require.Len(t, items, 1)
	assert.Equal(t, "Brigadeiros Gourmet", items[0].Name)

	rec, _ = ts.json(http.MethodGet, "/api/catalog/products?category=salgado", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = ts.json(http.MethodGet, "/api/catalog/products/"+items[0].ID+"/order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ts.app.Orders().OrderLink("Brigadeiros Gourmet"), decode[map[string]string](t, env.Data)["url"])

	rec, _ = ts.json(http.MethodGet, "/api/catalog/products/missing/order", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env = ts.json(http.MethodGet, "/api/catalog/order", nil)
	assert.Contains(t, decode[map[string]string](t, env.Data)["url"], "encomenda%20personalizada")
}

func TestAdminListPagination(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		rec, _ := ts.json(http.MethodPost, "/api/admin/products", map[string]interface{}{"name": n, "price": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	_, env := ts.json(http.MethodGet, "/api/admin/products?page=2&perPage=2", nil)
	items := decode[[]domain.Product](t, env.Data)
	require.Len(t, items, 2)
	assert.Equal(t, "C", items[0].Name)
	assert.Equal(t, int64(5), env.Meta.Total)

	_, env = ts.json(http.MethodGet, "/api/admin/products?page=9&perPage=2", nil)
	assert.Empty(t, decode[[]domain.Product](t, env.Data))
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)
	rec, env := ts.json(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[struct {
		Backends []string         `json:"backends"`
		Remote   app.RemoteStatus `json:"remote"`
	}](t, env.Data)
	assert.Equal(t, []string{"remote/sqlite", "local"}, st.Backends)
	assert.True(t, st.Remote.Available)
}
