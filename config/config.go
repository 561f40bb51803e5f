package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fxbacktest/tickdata"
)

// YAMLConfig is the on-disk server configuration.
type YAMLConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	ClickHouse struct {
		Addr     string `yaml:"addr"`
		Database string `yaml:"database"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Table    string `yaml:"table"`
	} `yaml:"clickhouse"`
}

// Config is the resolved application configuration.
type Config struct {
	Port       int
	ClickHouse tickdata.ClickHouseConfig
}

var DefaultConfig = Config{
	Port: 19530,
	ClickHouse: tickdata.ClickHouseConfig{
		Addr:     "localhost:9000",
		Database: "fxbacktest",
		Table:    "ticks",
	},
}

// Load reads the YAML config file (optional) and applies environment
// overrides on top. Missing path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var yc YAMLConfig
		if err := yaml.Unmarshal(raw, &yc); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
		if yc.Server.Port > 0 {
			cfg.Port = yc.Server.Port
		}
		if yc.ClickHouse.Addr != "" {
			cfg.ClickHouse.Addr = yc.ClickHouse.Addr
		}
		if yc.ClickHouse.Database != "" {
			cfg.ClickHouse.Database = yc.ClickHouse.Database
		}
		if yc.ClickHouse.Username != "" {
			cfg.ClickHouse.Username = yc.ClickHouse.Username
		}
		if yc.ClickHouse.Password != "" {
			cfg.ClickHouse.Password = yc.ClickHouse.Password
		}
		if yc.ClickHouse.Table != "" {
			cfg.ClickHouse.Table = yc.ClickHouse.Table
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FXBT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_ADDR"); v != "" {
		cfg.ClickHouse.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_DATABASE"); v != "" {
		cfg.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USERNAME"); v != "" {
		cfg.ClickHouse.Username = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_TABLE"); v != "" {
		cfg.ClickHouse.Table = v
	}
}
