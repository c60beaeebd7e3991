package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STOREFRONT_WEB_PORT.
const EnvPrefix = "STOREFRONT_"

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	BodyLimit   string   `yaml:"body_limit"`
	AllowedCORS []string `yaml:"allowed_cors"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"` // development | production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// RemoteConfig selects the document store of the remote backend.
// Driver is one of mongo, postgres, sqlite or none.
type RemoteConfig struct {
	Driver   string        `yaml:"driver"`
	DSN      string        `yaml:"dsn"`
	Database string        `yaml:"database"` // mongo database name
	Timeout  time.Duration `yaml:"timeout"`
	Debug    bool          `yaml:"debug"`
}

// StorageConfig selects the object store for images. Driver is s3, disk or none.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Dir       string `yaml:"dir"`
	BaseURL   string `yaml:"base_url"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
	PathStyle bool   `yaml:"path_style"`
}

// LocalConfig is the fallback key/value store. An empty Path keeps data in memory.
type LocalConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	PasswordHash string        `yaml:"password_hash"` // bcrypt, takes precedence over password
	Secret       string        `yaml:"secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type WhatsAppConfig struct {
	Phone string `yaml:"phone"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Logger   LogConfig      `yaml:"logger"`
	Remote   RemoteConfig   `yaml:"remote"`
	Storage  StorageConfig  `yaml:"storage"`
	Local    LocalConfig    `yaml:"local"`
	Auth     AuthConfig     `yaml:"auth"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// GetLogDir returns the log directory below the workdir
func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

// GetDataDir returns the data directory below the workdir
func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// Addr is the listen address of the web server
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// DefaultAppConfig returns a configuration that runs without any external service:
// sqlite remote store, disk images, bbolt fallback store.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "storefront",
			Location: "America/Sao_Paulo",
			Workdir:  "/var/storefront",
		},
		Web: WebConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			BodyLimit: "8M",
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/storefront/logs/storefront.log",
		},
		Remote: RemoteConfig{
			Driver:   "sqlite",
			DSN:      "/var/storefront/data/catalog.db",
			Database: "storefront",
			Timeout:  10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:  "disk",
			Dir:     "/var/storefront/data/objects",
			BaseURL: "http://localhost:8080",
			Region:  "us-east-1",
		},
		Local: LocalConfig{
			Path: "/var/storefront/data/local.db",
			Key:  "localProducts",
		},
		Auth: AuthConfig{
			Username: "Silmara",
			Password: "231523",
			Secret:   "change-me-storefront-secret",
			TokenTTL: 12 * time.Hour,
		},
		WhatsApp: WhatsAppConfig{
			Phone: "5542999530903",
		},
	}
}

// LoadConfig reads the YAML file at path (optional), then a .env file in the
// working directory (optional), then STOREFRONT_* environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *AppConfig) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var err error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && err == nil {
			*dst, err = cast.ToIntE(v)
			if err != nil {
				err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok && err == nil {
			*dst, err = cast.ToBoolE(v)
			if err != nil {
				err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && err == nil {
			*dst, err = cast.ToDurationE(v)
			if err != nil {
				err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}

	str("SYSTEM_LOCATION", &c.System.Location)
	str("SYSTEM_WORKDIR", &c.System.Workdir)
	flag("SYSTEM_DEBUG", &c.System.Debug)

	str("WEB_HOST", &c.Web.Host)
	num("WEB_PORT", &c.Web.Port)
	str("WEB_BODY_LIMIT", &c.Web.BodyLimit)
	if v, ok := lookup(EnvPrefix + "WEB_ALLOWED_CORS"); ok {
		c.Web.AllowedCORS = cast.ToStringSlice(strings.ReplaceAll(v, ",", " "))
	}

	str("LOGGER_MODE", &c.Logger.Mode)
	flag("LOGGER_FILE_ENABLE", &c.Logger.FileEnable)
	str("LOGGER_FILENAME", &c.Logger.Filename)

	str("REMOTE_DRIVER", &c.Remote.Driver)
	str("REMOTE_DSN", &c.Remote.DSN)
	str("REMOTE_DATABASE", &c.Remote.Database)
	dur("REMOTE_TIMEOUT", &c.Remote.Timeout)
	flag("REMOTE_DEBUG", &c.Remote.Debug)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DIR", &c.Storage.Dir)
	str("STORAGE_BASE_URL", &c.Storage.BaseURL)
	str("STORAGE_REGION", &c.Storage.Region)
	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_ACCESS_KEY", &c.Storage.AccessKey)
	str("STORAGE_SECRET_KEY", &c.Storage.SecretKey)
	str("STORAGE_PUBLIC_URL", &c.Storage.PublicURL)
	flag("STORAGE_PATH_STYLE", &c.Storage.PathStyle)

	str("LOCAL_PATH", &c.Local.Path)
	str("LOCAL_KEY", &c.Local.Key)

	str("AUTH_USERNAME", &c.Auth.Username)
	str("AUTH_PASSWORD", &c.Auth.Password)
	str("AUTH_PASSWORD_HASH", &c.Auth.PasswordHash)
	str("AUTH_SECRET", &c.Auth.Secret)
	dur("AUTH_TOKEN_TTL", &c.Auth.TokenTTL)

	str("WHATSAPP_PHONE", &c.WhatsApp.Phone)
	return err
}
