package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Settlement   SettlementConfig
	Delivery     DeliveryConfig
	Cron         CronConfig
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
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BUILDBAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"BUILDBAZAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUILDBAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUILDBAZAAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BUILDBAZAAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BUILDBAZAAR_DB_DSN"`
	Driver string `envconfig:"BUILDBAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BUILDBAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"BUILDBAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BUILDBAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"BUILDBAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"BUILDBAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"BUILDBAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUILDBAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BUILDBAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BUILDBAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUILDBAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BUILDBAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUILDBAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"BUILDBAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUILDBAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUILDBAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUILDBAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUILDBAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUILDBAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUILDBAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SettlementConfig carries the payout computation rates. Percentages are
// decimal strings so operators can set fractional rates without float drift.
type SettlementConfig struct {
	PlatformFeePercent string `envconfig:"BUILDBAZAAR_SETTLEMENT_PLATFORM_FEE_PERCENT" default:"3"`
	TDSPercent         string `envconfig:"BUILDBAZAAR_SETTLEMENT_TDS_PERCENT" default:"1"`
	PeriodDays         int    `envconfig:"BUILDBAZAAR_SETTLEMENT_PERIOD_DAYS" default:"7"`
}

// PlatformFeeRate returns the platform fee as a fraction (3 -> 0.03).
func (s SettlementConfig) PlatformFeeRate() decimal.Decimal {
	return mustPercent(s.PlatformFeePercent)
}

// TDSRate returns the TDS withholding as a fraction (1 -> 0.01).
func (s SettlementConfig) TDSRate() decimal.Decimal {
	return mustPercent(s.TDSPercent)
}

// Period returns the settlement window as a duration.
func (s SettlementConfig) Period() time.Duration {
	return time.Duration(s.PeriodDays) * 24 * time.Hour
}

func (s SettlementConfig) validate() error {
	for _, raw := range []string{s.PlatformFeePercent, s.TDSPercent} {
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid settlement percentage %q: %w", raw, err)
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("settlement percentage %q out of range", raw)
		}
	}
	if s.PeriodDays <= 0 {
		return fmt.Errorf("settlement period days must be positive")
	}
	return nil
}

func mustPercent(raw string) decimal.Decimal {
	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return pct.Div(decimal.NewFromInt(100))
}

type DeliveryConfig struct {
	OTPTTL time.Duration `envconfig:"BUILDBAZAAR_DELIVERY_OTP_TTL" default:"10m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BUILDBAZAAR_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"BUILDBAZAAR_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BUILDBAZAAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BUILDBAZAAR_AUTO_MIGRATE" default:"false"`
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
