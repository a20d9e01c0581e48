package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RequestTimeout string   `yaml:"request_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Seeds []string `yaml:"seeds"`
}

// Load reads YAML config from path, then applies QUIZ_* environment
// overrides. A .env file in the working directory is loaded first when
// present; variables already set in the environment win over it.
// A missing config file is not an error; env alone can configure the
// service.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "QUIZ_PORT")
	if v := os.Getenv("QUIZ_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	setString(&cfg.Server.RequestTimeout, "QUIZ_REQUEST_TIMEOUT")
	setString(&cfg.Redis.Addr, "QUIZ_REDIS_ADDR")
	setString(&cfg.Redis.Password, "QUIZ_REDIS_PASSWORD")
	if v := os.Getenv("QUIZ_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	setString(&cfg.Redis.TTL, "QUIZ_REDIS_TTL")
	setString(&cfg.Postgres.URL, "QUIZ_POSTGRES_URL")
	setString(&cfg.SQLite.Path, "QUIZ_SQLITE_PATH")
	setString(&cfg.Catalog.TTL, "QUIZ_CATALOG_TTL")
	if v := os.Getenv("QUIZ_SEEDS"); v != "" {
		cfg.Seeds = splitList(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
