package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Email struct {
		Sender     string `yaml:"sender"`
		Password   string `yaml:"password"`
		Receiver   string `yaml:"receiver"`
		SMTPServer string `yaml:"smtp_server"`
		SMTPPort   int    `yaml:"smtp_port"`
	} `yaml:"email"`
	DataSource struct {
		Symbol       string        `yaml:"symbol"`
		Primary      string        `yaml:"primary"` // yahoo, nse or mock
		NSEBaseURL   string        `yaml:"nse_base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		YahooRPS     float64       `yaml:"yahoo_rps"`
		LookbackDays int           `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Strategy struct {
		SwingLookback int `yaml:"swing_lookback"`
		HistoryLimit  int `yaml:"history_limit"`
	} `yaml:"strategy"`
	Schedule struct {
		OpenCron   string `yaml:"open_cron"`
		CloseCron  string `yaml:"close_cron"`
		Timezone   string `yaml:"timezone"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Override struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"override"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Scanner struct {
		Workers int      `yaml:"workers"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"scanner"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then a .env file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		cfg.Email.Sender = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("EMAIL_RECEIVER"); v != "" {
		cfg.Email.Receiver = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Email.SMTPServer = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = strings.ToUpper(v)
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "BANKNIFTY"
	}
	if cfg.DataSource.Primary == "" {
		cfg.DataSource.Primary = "yahoo"
	}
	if cfg.DataSource.NSEBaseURL == "" {
		cfg.DataSource.NSEBaseURL = "https://www.nseindia.com"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 15 * time.Second
	}
	if cfg.DataSource.YahooRPS == 0 {
		cfg.DataSource.YahooRPS = 2
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 10
	}
	if cfg.Strategy.SwingLookback == 0 {
		cfg.Strategy.SwingLookback = 5
	}
	if cfg.Strategy.HistoryLimit == 0 {
		cfg.Strategy.HistoryLimit = 50
	}
	if cfg.Schedule.OpenCron == "" {
		cfg.Schedule.OpenCron = "0 15 9 * * 1-5"
	}
	if cfg.Schedule.CloseCron == "" {
		cfg.Schedule.CloseCron = "0 25 15 * * 1-5"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Asia/Kolkata"
	}
	if cfg.Email.SMTPServer == "" {
		cfg.Email.SMTPServer = "smtp.gmail.com"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Override.StateFile == "" {
		cfg.Override.StateFile = "data/override_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/swing_sentinel.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Scanner.Workers == 0 {
		cfg.Scanner.Workers = 15
	}
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// Validate checks that all fields hold usable values. Notifier credentials
// are optional; a missing sink is reported at startup, not rejected.
func (c *Config) Validate() error {
	switch c.DataSource.Primary {
	case "yahoo", "nse", "mock":
	default:
		return fmt.Errorf("data_source.primary must be yahoo, nse or mock, got %q", c.DataSource.Primary)
	}
	if c.DataSource.LookbackDays < 3 {
		return fmt.Errorf("data_source.lookback_days must be at least 3")
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Strategy.SwingLookback <= 0 {
		return fmt.Errorf("strategy.swing_lookback must be positive")
	}
	if c.Strategy.HistoryLimit <= 0 {
		return fmt.Errorf("strategy.history_limit must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner.workers must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
