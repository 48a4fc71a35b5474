package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Data     DataConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Log      LogConfig
}

type DataConfig struct {
	Dir       string `envconfig:"KASIR_DATA_DIR" default:"./data"`
	StoreFile string `envconfig:"KASIR_STORE_FILE" default:"store.json"`
	DraftFile string `envconfig:"KASIR_DRAFT_FILE" default:"pending_sales.json"`
	TimeZone  string `envconfig:"KASIR_TIMEZONE" default:"Local"`
}

// PostgresConfig is optional; an empty URL keeps the store on local files.
type PostgresConfig struct {
	URL string `envconfig:"DATABASE_URL"`
}

// RedisConfig is optional; an empty address disables the secondary store.
type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"kasirlite"`
}

type LogConfig struct {
	Level             string `envconfig:"LOG_LEVEL" default:"info"`
	Encoding          string `envconfig:"LOG_ENCODING" default:"console"`
	Development       bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
	DisableCaller     bool   `envconfig:"LOG_DISABLE_CALLER" default:"true"`
	DisableStacktrace bool   `envconfig:"LOG_DISABLE_STACKTRACE" default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	cfg.Data.Dir = strings.TrimSpace(cfg.Data.Dir)
	cfg.Postgres.URL = strings.TrimSpace(cfg.Postgres.URL)
	cfg.Redis.Addr = strings.TrimSpace(cfg.Redis.Addr)
	return cfg, nil
}

func (c DataConfig) StorePath() string {
	return filepath.Join(c.Dir, c.StoreFile)
}

func (c DataConfig) DraftPath() string {
	return filepath.Join(c.Dir, c.DraftFile)
}

// Location resolves the zone used for calendar-day report windows.
func (c DataConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", name)
	}
	return loc, nil
}
