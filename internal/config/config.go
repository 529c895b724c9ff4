package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Supported destination drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	App    AppConfig
	Input  InputConfig
	DB     DBConfig
	Ingest IngestConfig
}

type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"required"`
}

type InputConfig struct {
	Path string `validate:"required"`
}

// DBConfig locates the destination store. Path is used by sqlite, DSN by postgres and mysql.
type DBConfig struct {
	Driver string `validate:"required,oneof=sqlite postgres mysql"`
	Path   string `validate:"required_if=Driver sqlite"`
	DSN    string `validate:"required_unless=Driver sqlite"`
}

type IngestConfig struct {
	BatchSize int `validate:"gte=1,lte=10000"`
	Workers   int `validate:"gte=1,lte=64"`
	Replace   bool
}

var validate = validator.New()

// Load reads .env (if present) and the environment. Flags applied afterwards must
// call Validate again.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "ingest_orders"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Input: InputConfig{
			Path: getEnv("INGEST_INPUT_PATH", "orders.json"),
		},
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("INGEST_DB_DRIVER", DriverSQLite)),
			Path:   getEnv("INGEST_DB_PATH", "orders_database.db"),
			DSN:    getEnv("INGEST_DB_DSN", ""),
		},
		Ingest: IngestConfig{
			BatchSize: getEnvAsInt("INGEST_BATCH_SIZE", 500),
			Workers:   getEnvAsInt("INGEST_WORKERS", 4),
			Replace:   getEnvAsBool("INGEST_REPLACE", false),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// MySQL commits DDL implicitly, so a failed load after the drop could not restore the tables.
	if c.DB.Driver == DriverMySQL && c.Ingest.Replace {
		return fmt.Errorf("invalid config: replace is not supported with the mysql driver")
	}
	return nil
}

// Target describes the destination for logs and summaries without leaking credentials.
func (d DBConfig) Target() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	if i := strings.LastIndex(d.DSN, "@"); i >= 0 {
		return d.Driver + "://" + d.DSN[i+1:]
	}
	return d.Driver
}

/* ================= helpers ================= */

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
