package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/auth"
	"github.com/silmarabolos/storefront/internal/catalog"
	"github.com/silmarabolos/storefront/internal/catalog/localstore"
	"github.com/silmarabolos/storefront/internal/catalog/remote"
	"github.com/silmarabolos/storefront/internal/catalog/remote/objstore"
	"github.com/silmarabolos/storefront/internal/whatsapp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Application struct {
	appConfig *config.AppConfig
	catalog   *catalog.FallbackService
	docs      remote.DocumentStore
	remote    *remote.Client
	blobs     objstore.Store
	local     *localstore.Store
	kv        localstore.KV
	orders    *whatsapp.Orders
	authn     *auth.Authenticator
	sched     *cron.Cron

	statusMu sync.RWMutex
	status   RemoteStatus
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider    = (*Application)(nil)
	_ CatalogProvider   = (*Application)(nil)
	_ OrdersProvider    = (*Application)(nil)
	_ AuthProvider      = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ StatusProvider    = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Catalog() *catalog.FallbackService {
	return a.catalog
}

func (a *Application) Orders() *whatsapp.Orders {
	return a.orders
}

func (a *Application) Auth() *auth.Authenticator {
	return a.authn
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// ObjectDir returns the directory of the disk object store, or "" for other drivers.
func (a *Application) ObjectDir() string {
	if d, ok := a.blobs.(*objstore.DiskStore); ok {
		return d.Dir()
	}
	return ""
}

// Init sets up logging, the catalog backends and the background jobs.
func (a *Application) Init(ctx context.Context) error {
	cfg := a.appConfig
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := a.initLogger(); err != nil {
		return err
	}

	orders, err := whatsapp.NewOrders(cfg.WhatsApp.Phone)
	if err != nil {
		return err
	}
	a.orders = orders

	verifier, err := auth.NewStaticVerifier(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
	if err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	a.authn = auth.NewAuthenticator(verifier, cfg.Auth.Secret, cfg.Auth.TokenTTL)

	if err := a.initLocal(); err != nil {
		return err
	}
	if err := a.initBlobs(); err != nil {
		_ = a.kv.Close()
		a.kv, a.local = nil, nil
		return err
	}
	a.initRemote(ctx)

	var backends []catalog.Backend
	var uploader catalog.ImageUploader
	if a.remote != nil {
		backends = append(backends, a.remote)
		uploader = a.remote
	}
	backends = append(backends, a.local)
	a.catalog = catalog.NewFallbackService(uploader, backends...)

	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	zap.L().Info("catalog backends ready",
		zap.String("namespace", "app"),
		zap.Strings("chain", names))

	a.checkProducts(ctx)
	a.initJob()
	return nil
}

func (a *Application) initLogger() error {
	cfg := a.appConfig
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		if err := os.MkdirAll(filepath.Dir(cfg.Logger.Filename), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return err
		}
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func (a *Application) initLocal() error {
	cfg := a.appConfig.Local
	if strings.TrimSpace(cfg.Path) == "" {
		a.kv = localstore.NewMemoryKV()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return fmt.Errorf("create local store dir: %w", err)
		}
		kv, err := localstore.OpenBolt(cfg.Path)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		a.kv = kv
	}
	var opts []localstore.Option
	if cfg.Key != "" {
		opts = append(opts, localstore.WithKey(cfg.Key))
	}
	a.local = localstore.New(a.kv, opts...)
	return nil
}

func (a *Application) initBlobs() error {
	cfg := a.appConfig.Storage
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		s, err := objstore.NewS3Store(objstore.S3Config{
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PublicURL: cfg.PublicURL,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return err
		}
		a.blobs = s
	case "disk":
		d, err := objstore.NewDiskStore(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return err
		}
		a.blobs = d
	case "", "none":
		zap.L().Warn("no object storage configured, image uploads are disabled", zap.String("namespace", "app"))
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	return nil
}

// initRemote connects the document store. A failed connection leaves the
// catalog on the local store only and is logged, not fatal.
func (a *Application) initRemote(ctx context.Context) {
	cfg := a.appConfig.Remote
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		zap.L().Warn("remote catalog disabled, using local store only", zap.String("namespace", "app"))
		return
	}

	var docs remote.DocumentStore
	var err error
	switch driver {
	case "mongo", "mongodb":
		cctx, cancel := context.WithTimeout(ctx, cfg.Timeout+5*time.Second)
		docs, err = remote.OpenMongo(cctx, cfg.DSN, cfg.Database)
		cancel()
	default:
		if driver == "sqlite" || driver == "sqlite3" {
			if mkErr := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); mkErr != nil {
				zap.L().Warn("sqlite dir", zap.String("namespace", "app"), zap.Error(mkErr))
			}
		}
		docs, err = remote.OpenGorm(driver, cfg.DSN, cfg.Debug)
	}
	if err != nil {
		zap.L().Error("remote catalog unavailable, using local store only",
			zap.String("namespace", "app"),
			zap.String("driver", driver),
			zap.Error(err))
		a.setStatus(RemoteStatus{Backend: driver, CheckedAt: time.Now(), Error: err.Error()})
		return
	}
	a.docs = docs
	a.remote = remote.NewClient(docs, a.blobs, cfg.Timeout)
	a.setStatus(RemoteStatus{Backend: a.remote.Name(), Available: true, CheckedAt: time.Now()})
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.remote.Close(ctx); err != nil {
			zap.L().Warn("close remote catalog", zap.String("namespace", "app"), zap.Error(err))
		}
		cancel()
	}
	if a.kv != nil {
		_ = a.kv.Close()
	}
	_ = zap.L().Sync()
}
