package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Testing     Environment = "testing"
)

// ParseEnvironment accepts the long names and the dev/prod/test aliases.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	case "testing", "test":
		return Testing, nil
	default:
		return "", fmt.Errorf("invalid ENVIRONMENT %q: must be one of development, production, testing", s)
	}
}

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Minio    MinioConfig    `koanf:"minio"`
	App      AppConfig      `koanf:"app"`
}

type ServerConfig struct {
	Host           string   `koanf:"host"            validate:"required"`
	Port           int      `koanf:"port"            validate:"min=1,max=65535"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `koanf:"url"             validate:"required"`
	MaxConnections int32         `koanf:"max_connections" validate:"min=1"`
	AcquireTimeout time.Duration `koanf:"acquire_timeout" validate:"min=0"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"     validate:"required"`
	Password string `koanf:"password"`
}

type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"   validate:"required"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"     validate:"required"`
	UseSSL    bool   `koanf:"use_ssl"`
}

type AppConfig struct {
	Environment Environment `koanf:"environment" validate:"oneof=development production testing"`
	LogLevel    string      `koanf:"log_level"`
	LogJSON     bool        `koanf:"log_json"`
}

// envKeys maps environment variable names to config paths.
var envKeys = map[string]string{
	"HOST":                     "server.host",
	"PORT":                     "server.port",
	"CORS_ALLOWED_ORIGINS":     "server.allowed_origins",
	"DATABASE_URL":             "database.url",
	"DATABASE_MAX_CONNECTIONS": "database.max_connections",
	"DATABASE_ACQUIRE_TIMEOUT": "database.acquire_timeout",
	"REDIS_ADDR":               "redis.addr",
	"REDIS_PASSWORD":           "redis.password",
	"MINIO_ENDPOINT":           "minio.endpoint",
	"MINIO_ACCESS_KEY":         "minio.access_key",
	"MINIO_SECRET_KEY":         "minio.secret_key",
	"MINIO_BUCKET":             "minio.bucket",
	"MINIO_USE_SSL":            "minio.use_ssl",
	"ENVIRONMENT":              "app.environment",
	"LOG_LEVEL":                "app.log_level",
	"LOG_JSON":                 "app.log_json",
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           3000,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			MaxConnections: 15,
			AcquireTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Minio: MinioConfig{Endpoint: "localhost:9000", Bucket: "blog-media"},
		App: AppConfig{
			Environment: Development,
			LogLevel:    "info",
		},
	}
}

// Load reads .env (when present) and the process environment on top of Default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnviron(os.Environ)
}

// LoadFromEnviron is Load without the .env step, reading variables from environ.
func LoadFromEnviron(environ func() []string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	var envErr error
	err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[key]
			if !ok {
				return "", nil
			}
			switch path {
			case "server.allowed_origins":
				return path, splitList(value)
			case "app.environment":
				e, err := ParseEnvironment(value)
				if err != nil {
					envErr = err
					return "", nil
				}
				return path, string(e)
			}
			return path, value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if envErr != nil {
		return nil, envErr
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("configuration validation failed: %s is invalid (%s)", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func (c *Config) BindAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsDevelopment() bool { return c.App.Environment == Development }

func (c *Config) IsProduction() bool { return c.App.Environment == Production }

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
