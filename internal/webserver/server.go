package webserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/auth"
	"go.uber.org/zap"
)

// AppContextKey is the echo context key holding the application context.
const AppContextKey = "appctx"

const (
	// PublicPrefix groups the storefront routes.
	PublicPrefix = "/api"
	// AdminPrefix groups the JWT protected admin routes.
	AdminPrefix = "/api/admin"
)

type routeGroup int

const (
	groupPublic routeGroup = iota
	groupAdmin
)

type route struct {
	group   routeGroup
	method  string
	path    string
	handler echo.HandlerFunc
}

var (
	routes   []route
	routesMu sync.Mutex
)

func register(g routeGroup, method, path string, h echo.HandlerFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{group: g, method: method, path: path, handler: h})
}

// ApiGET registers an admin GET route below AdminPrefix
func ApiGET(path string, h echo.HandlerFunc) { register(groupAdmin, http.MethodGet, path, h) }

// ApiPOST registers an admin POST route below AdminPrefix
func ApiPOST(path string, h echo.HandlerFunc) { register(groupAdmin, http.MethodPost, path, h) }

// ApiPUT registers an admin PUT route below AdminPrefix
func ApiPUT(path string, h echo.HandlerFunc) { register(groupAdmin, http.MethodPut, path, h) }

// ApiDELETE registers an admin DELETE route below AdminPrefix
func ApiDELETE(path string, h echo.HandlerFunc) { register(groupAdmin, http.MethodDelete, path, h) }

// PublicGET registers an unauthenticated GET route below PublicPrefix
func PublicGET(path string, h echo.HandlerFunc) { register(groupPublic, http.MethodGet, path, h) }

// PublicPOST registers an unauthenticated POST route below PublicPrefix
func PublicPOST(path string, h echo.HandlerFunc) { register(groupPublic, http.MethodPost, path, h) }

// Options configures a Server
type Options struct {
	Config    *config.AppConfig
	AppCtx    interface{} // exposed to handlers under AppContextKey
	JWTSecret []byte
	StaticDir string // served under /images when set
}

type Server struct {
	root *echo.Echo
	addr string
}

// NewServer builds the echo instance and mounts every registered route.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	if len(cfg.Web.AllowedCORS) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Web.AllowedCORS,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	if cfg.Web.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Web.BodyLimit))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, opts.AppCtx)
			return next(c)
		}
	})

	if opts.StaticDir != "" {
		images := filepath.Join(opts.StaticDir, "images")
		if err := os.MkdirAll(images, 0o755); err != nil {
			zap.L().Warn("image directory unavailable", zap.String("namespace", "web"), zap.Error(err))
		}
		e.Static("/images", images)
	}

	public := e.Group(PublicPrefix)
	admin := e.Group(AdminPrefix, echojwt.WithConfig(echojwt.Config{
		SigningKey:    opts.JWTSecret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(auth.Claims) },
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid session token").SetInternal(err)
		},
	}))

	routesMu.Lock()
	for _, r := range routes {
		g := public
		if r.group == groupAdmin {
			g = admin
		}
		g.Add(r.method, r.path, r.handler)
	}
	routesMu.Unlock()

	return &Server{root: e, addr: cfg.Addr()}
}

// Echo exposes the underlying router
func (s *Server) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("web server listening", zap.String("namespace", "web"), zap.String("addr", s.addr))
	err := s.root.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// CurrentIdentity returns the admin identity of a JWT protected request.
func CurrentIdentity(c echo.Context) (auth.Identity, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return auth.Identity{}, false
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return auth.Identity{}, false
	}
	return auth.IdentityFromClaims(claims), true
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/images/")
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("namespace", "web"),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				zap.L().Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zap.L().Debug("request", fields...)
			return nil
		},
	})
}

// Validator adapts go-playground/validator to echo
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
