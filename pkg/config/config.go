package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BIKESHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BIKESHOP_DB_DSN"
	EnvDBHost = "BIKESHOP_DB_HOST"
	EnvDBUser = "BIKESHOP_DB_USER"
	EnvDBName = "BIKESHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Bling        BlingConfig
	Shipping     ShippingConfig
	Admin        AdminConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIKESHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"BIKESHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIKESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIKESHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BIKESHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BIKESHOP_DB_DSN"`
	Driver string `envconfig:"BIKESHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIKESHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"BIKESHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIKESHOP_DB_USER"`
	LegacyPassword string `envconfig:"BIKESHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIKESHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIKESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIKESHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIKESHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIKESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIKESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIKESHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIKESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"BIKESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIKESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIKESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIKESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIKESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIKESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIKESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BlingConfig carries the OAuth application credentials registered with the
// Bling developer portal plus the API base URLs.
type BlingConfig struct {
	ClientID     string        `envconfig:"BIKESHOP_BLING_CLIENT_ID"`
	ClientSecret string        `envconfig:"BIKESHOP_BLING_CLIENT_SECRET"`
	APIBaseURL   string        `envconfig:"BIKESHOP_BLING_API_BASE_URL" default:"https://api.bling.com.br/Api/v3"`
	TokenURL     string        `envconfig:"BIKESHOP_BLING_TOKEN_URL" default:"https://api.bling.com.br/Api/v3/oauth/token"`
	HTTPTimeout  time.Duration `envconfig:"BIKESHOP_BLING_HTTP_TIMEOUT" default:"30s"`
	// ExpiryBuffer is subtracted from the stored expiry when deciding
	// whether a refresh is due.
	ExpiryBuffer   time.Duration `envconfig:"BIKESHOP_BLING_EXPIRY_BUFFER" default:"5m"`
	InvoiceTimeout time.Duration `envconfig:"BIKESHOP_BLING_INVOICE_TIMEOUT" default:"20s"`
}

// Configured reports whether OAuth application credentials are present.
func (b BlingConfig) Configured() bool {
	return b.ClientID != "" && b.ClientSecret != ""
}

type ShippingConfig struct {
	FreeThreshold string `envconfig:"BIKESHOP_SHIPPING_FREE_THRESHOLD" default:"299.00"`
	FlatRate      string `envconfig:"BIKESHOP_SHIPPING_FLAT_RATE" default:"29.90"`
}

type AdminConfig struct {
	APIToken string `envconfig:"BIKESHOP_ADMIN_API_TOKEN" required:"true"`
}

type SyncConfig struct {
	CatalogPageSize int `envconfig:"BIKESHOP_SYNC_CATALOG_PAGE_SIZE" default:"100"`
	// CatalogMaxPages bounds one sync run so a runaway Bling pagination
	// cannot keep the lock forever.
	CatalogMaxPages int           `envconfig:"BIKESHOP_SYNC_CATALOG_MAX_PAGES" default:"50"`
	CatalogInterval time.Duration `envconfig:"BIKESHOP_SYNC_CATALOG_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"BIKESHOP_SYNC_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BIKESHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BIKESHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
