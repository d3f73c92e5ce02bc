package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
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
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Engine struct {
		Countdown              string `yaml:"countdown"`
		MaxAutoStartNum        int    `yaml:"maxAutoStartNum"`
		MaxActiveSessions      int    `yaml:"maxActiveSessions"`
		AllowUnstartedPosition bool   `yaml:"allowUnstartedPosition"`
		RankTieBreak           string `yaml:"rankTieBreak"`
	} `yaml:"engine"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	HTTP struct {
		RateLimit float64 `yaml:"rateLimit"`
		RateBurst int     `yaml:"rateBurst"`
		PublicURL string  `yaml:"publicURL"`
	} `yaml:"http"`
}

// Default returns the configuration used for any value the file leaves out.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "1h"
	cfg.Mongo.Database = "quiz"
	cfg.Quiz.TTL = "10m"
	cfg.Engine.Countdown = "3s"
	cfg.Engine.MaxAutoStartNum = 50
	cfg.Engine.MaxActiveSessions = 10
	cfg.Engine.AllowUnstartedPosition = true
	cfg.Engine.RankTieBreak = TieBreakJoin
	cfg.Log.Level = "info"
	cfg.HTTP.RateLimit = 50
	cfg.HTTP.RateBurst = 100
	cfg.HTTP.PublicURL = "http://localhost:8080"
	return cfg
}

// Rank tie-break modes.
const (
	TieBreakJoin = "join"
	TieBreakName = "name"
)

// Load reads YAML config from path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Engine.RankTieBreak {
	case TieBreakJoin, TieBreakName:
	default:
		return fmt.Errorf("engine.rankTieBreak must be %q or %q, got %q", TieBreakJoin, TieBreakName, c.Engine.RankTieBreak)
	}
	if c.Engine.MaxAutoStartNum < 0 || c.Engine.MaxActiveSessions < 0 {
		return fmt.Errorf("engine limits must not be negative")
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
