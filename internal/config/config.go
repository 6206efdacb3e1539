package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MaxSlipBytes caps slip image uploads.
	MaxSlipBytes int64 `yaml:"max_slip_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LineConfig struct {
	ChannelToken string        `yaml:"channel_token"`
	ChannelID    string        `yaml:"channel_id"`
	APIBaseURL   string        `yaml:"api_base_url"`
	VerifyURL    string        `yaml:"verify_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

type EasySlipConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TTL       time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	DispatchCron   string `yaml:"dispatch_cron"`
	ExpiryCron     string `yaml:"expiry_cron"`
	CacheSweepCron string `yaml:"cache_sweep_cron"`
	Timezone       string `yaml:"timezone"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Line      LineConfig      `yaml:"line"`
	EasySlip  EasySlipConfig  `yaml:"easyslip"`
	Session   SessionConfig   `yaml:"session"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.MaxSlipBytes <= 0 {
		cfg.Server.MaxSlipBytes = 5 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Line.APIBaseURL == "" {
		cfg.Line.APIBaseURL = "https://api.line.me"
	}
	if cfg.Line.VerifyURL == "" {
		cfg.Line.VerifyURL = "https://api.line.me/oauth2/v2.1/verify"
	}
	if cfg.Line.Timeout <= 0 {
		cfg.Line.Timeout = 10 * time.Second
	}
	if cfg.EasySlip.BaseURL == "" {
		cfg.EasySlip.BaseURL = "https://developer.easyslip.com/api/v1"
	}
	if cfg.EasySlip.Timeout <= 0 {
		cfg.EasySlip.Timeout = 15 * time.Second
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Scheduler.DispatchCron == "" {
		cfg.Scheduler.DispatchCron = "0 8 * * *" // daily, provider-local morning
	}
	if cfg.Scheduler.ExpiryCron == "" {
		cfg.Scheduler.ExpiryCron = "0 * * * *" // hourly
	}
	if cfg.Scheduler.CacheSweepCron == "" {
		cfg.Scheduler.CacheSweepCron = "*/30 * * * *" // half-hourly
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Asia/Bangkok"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Line.ChannelToken == "" {
		return nil, errors.New("line.channel_token is required")
	}
	if cfg.EasySlip.APIKey == "" {
		return nil, errors.New("easyslip.api_key is required")
	}
	if cfg.Session.JWTSecret == "" {
		return nil, errors.New("session.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
