// Package config loads runtime settings from an optional YAML file overlaid
// with SHEEP_* environment variables.
//
//	SHEEP_TIMEZONE           IANA zone for day boundaries (default Local)
//	SHEEP_STORAGE_DRIVER     memory|fs|sqlite|postgres|s3|badger|redis (default sqlite)
//	SHEEP_FS_ROOT            directory for the fs driver
//	SHEEP_SQLITE_PATH        database file for the sqlite driver
//	SHEEP_POSTGRES_DSN       connection string for the postgres driver
//	SHEEP_S3_BUCKET          bucket for the s3 driver (required)
//	SHEEP_S3_REGION          region for the s3 driver (default us-east-1)
//	SHEEP_S3_ENDPOINT        custom endpoint, e.g. MinIO
//	SHEEP_S3_PREFIX          object key prefix
//	SHEEP_S3_PATH_STYLE      true|false
//	SHEEP_BADGER_PATH        directory for the badger driver
//	SHEEP_BADGER_IN_MEMORY   true|false
//	SHEEP_REDIS_ADDR         host:port for the redis driver
//	SHEEP_REDIS_PASSWORD     password for the redis driver
//	SHEEP_REDIS_DB           database number for the redis driver
//	SHEEP_REDIS_PREFIX       key namespace for the redis driver
//	SHEEP_LOG_LEVEL          debug|info|warn|error
//	SHEEP_LOG_FORMAT         json|console|auto
//	SHEEP_METRICS_ENABLED    true|false
//	SHEEP_METRICS_TEXTFILE   path for the prometheus textfile output
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Timezone string   `yaml:"timezone"`
	Storage  Storage  `yaml:"storage"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
	Verified Verified `yaml:"verified"`
}

// Storage selects and configures the state backend.
type Storage struct {
	Driver   string   `yaml:"driver" validate:"required,oneof=memory fs sqlite postgres s3 badger redis"`
	FS       FS       `yaml:"fs"`
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
	S3       S3       `yaml:"s3"`
	Badger   Badger   `yaml:"badger"`
	Redis    Redis    `yaml:"redis"`
}

// FS configures the filesystem driver.
type FS struct {
	Root string `yaml:"root"`
}

// SQLite configures the sqlite driver.
type SQLite struct {
	Path string `yaml:"path"`
}

// Postgres configures the postgres driver.
type Postgres struct {
	DSN string `yaml:"dsn"`
}

// S3 configures the s3 driver. Static keys are optional.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Badger configures the badger driver.
type Badger struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Redis configures the redis driver.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string `yaml:"prefix"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console auto"`
}

// Metrics configures the prometheus recorder.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"omitempty,alphanum"`
	// Textfile, when set, receives the registry in the text exposition
	// format after each command (node exporter textfile collector).
	Textfile string `yaml:"textfile"`
}

// Verified overrides the screen usage scoring. Thresholds are the exclusive
// upper bounds in minutes for three, two and one stars.
type Verified struct {
	Thresholds []int `yaml:"thresholds" validate:"omitempty,len=3,dive,gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timezone: "Local",
		Storage: Storage{
			Driver: "sqlite",
			FS:     FS{Root: "./sheepdata"},
			SQLite: SQLite{Path: "countingsheep.db"},
			S3:     S3{Region: "us-east-1"},
			Badger: Badger{Path: "./sheepdata/badger"},
			Redis:  Redis{Addr: "localhost:6379"},
		},
		Logging: Logging{Level: "info", Format: "auto"},
		Metrics: Metrics{Namespace: "countingsheep"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing or empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- operator supplied config path
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and per-driver requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("invalid config: storage.s3.bucket is required for the s3 driver")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.New("invalid config: storage.redis.addr is required for the redis driver")
		}
	case "badger":
		if !c.Storage.Badger.InMemory && c.Storage.Badger.Path == "" {
			return errors.New("invalid config: storage.badger.path is required unless in_memory is set")
		}
	}
	t := c.Verified.Thresholds
	if len(t) == 3 && (t[0] >= t[1] || t[1] >= t[2]) {
		return fmt.Errorf("invalid config: verified.thresholds must be strictly ascending, got %v", t)
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
		return nil
	}
	str("SHEEP_TIMEZONE", &c.Timezone)
	str("SHEEP_STORAGE_DRIVER", &c.Storage.Driver)
	str("SHEEP_FS_ROOT", &c.Storage.FS.Root)
	str("SHEEP_SQLITE_PATH", &c.Storage.SQLite.Path)
	str("SHEEP_POSTGRES_DSN", &c.Storage.Postgres.DSN)
	str("SHEEP_S3_BUCKET", &c.Storage.S3.Bucket)
	str("SHEEP_S3_REGION", &c.Storage.S3.Region)
	str("SHEEP_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("SHEEP_S3_PREFIX", &c.Storage.S3.Prefix)
	str("SHEEP_BADGER_PATH", &c.Storage.Badger.Path)
	str("SHEEP_REDIS_ADDR", &c.Storage.Redis.Addr)
	str("SHEEP_REDIS_PASSWORD", &c.Storage.Redis.Password)
	str("SHEEP_REDIS_PREFIX", &c.Storage.Redis.Prefix)
	str("SHEEP_LOG_LEVEL", &c.Logging.Level)
	str("SHEEP_LOG_FORMAT", &c.Logging.Format)
	str("SHEEP_METRICS_TEXTFILE", &c.Metrics.Textfile)
	if err := boolean("SHEEP_S3_PATH_STYLE", &c.Storage.S3.PathStyle); err != nil {
		return err
	}
	if err := boolean("SHEEP_BADGER_IN_MEMORY", &c.Storage.Badger.InMemory); err != nil {
		return err
	}
	if err := boolean("SHEEP_METRICS_ENABLED", &c.Metrics.Enabled); err != nil {
		return err
	}
	if v, ok := lookup("SHEEP_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHEEP_REDIS_DB: %w", err)
		}
		c.Storage.Redis.DB = n
	}
	return nil
}
