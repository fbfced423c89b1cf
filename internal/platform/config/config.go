// Package config はアプリケーション設定（YAMLファイル＋環境変数）を読み込みます。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"market_dashboard/internal/platform/scheduler"
)

// DefaultPath は CONFIG_PATH が未設定のときに読む設定ファイルです。
const DefaultPath = "config.yaml"

// DefaultPopularSymbols は人気銘柄のデフォルト一覧（表示順）です。
var DefaultPopularSymbols = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK", "HINDUNILVR", "HDFC", "SBIN", "BHARTIARTL", "ITC",
	"KOTAKBANK", "LT", "AXISBANK", "MARUTI", "ASIANPAINT", "WIPRO", "HCLTECH", "ULTRACEMCO", "TITAN", "BAJFINANCE",
	"TATAMOTORS", "SUNPHARMA", "POWERGRID", "TECHM", "NTPC", "ADANIENT", "ADANIPORTS", "BAJAJFINSV", "BAJAJ-AUTO", "COALINDIA",
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Historical struct {
		ChunkDays    int           `yaml:"chunk_days"`
		ChunkTimeout time.Duration `yaml:"chunk_timeout"`
	} `yaml:"historical"`
	Instruments struct {
		Exchange    string        `yaml:"exchange"`
		Popular     []string      `yaml:"popular"`
		SyncCron    string        `yaml:"sync_cron"`
		SyncOnStart bool          `yaml:"sync_on_start"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
	} `yaml:"instruments"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error. instruments.sync_on_start defaults to true unless the file or env sets it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Instruments.SyncOnStart = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv は CONFIG_PATH（未設定なら DefaultPath）から設定を読み込みます。
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("CHUNK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHUNK_DAYS: %w", err)
		}
		c.Historical.ChunkDays = n
	}
	if v := os.Getenv("CHUNK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHUNK_TIMEOUT: %w", err)
		}
		c.Historical.ChunkTimeout = d
	}
	if v := os.Getenv("INSTRUMENT_EXCHANGE"); v != "" {
		c.Instruments.Exchange = v
	}
	if v := os.Getenv("POPULAR_SYMBOLS"); v != "" {
		c.Instruments.Popular = splitList(v)
	}
	if v := os.Getenv("INSTRUMENT_SYNC_CRON"); v != "" {
		c.Instruments.SyncCron = v
	}
	if v := os.Getenv("INSTRUMENT_SYNC_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INSTRUMENT_SYNC_ON_START: %w", err)
		}
		c.Instruments.SyncOnStart = b
	}
	if v := os.Getenv("INSTRUMENT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("INSTRUMENT_CACHE_TTL: %w", err)
		}
		c.Instruments.CacheTTL = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Historical.ChunkDays == 0 {
		c.Historical.ChunkDays = 100
	}
	if c.Historical.ChunkTimeout == 0 {
		c.Historical.ChunkTimeout = 30 * time.Second
	}
	if c.Instruments.Exchange == "" {
		c.Instruments.Exchange = "NSE"
	}
	c.Instruments.Exchange = strings.ToUpper(c.Instruments.Exchange)
	if len(c.Instruments.Popular) == 0 {
		c.Instruments.Popular = append([]string(nil), DefaultPopularSymbols...)
	}
	if c.Instruments.SyncCron == "" {
		c.Instruments.SyncCron = "0 30 8 * * *"
	}
	if c.Instruments.CacheTTL == 0 {
		c.Instruments.CacheTTL = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Historical.ChunkDays <= 0 {
		return fmt.Errorf("historical.chunk_days must be positive")
	}
	if c.Historical.ChunkTimeout <= 0 {
		return fmt.Errorf("historical.chunk_timeout must be positive")
	}
	if c.Instruments.CacheTTL <= 0 {
		return fmt.Errorf("instruments.cache_ttl must be positive")
	}
	if _, err := scheduler.ParseSpec(c.Instruments.SyncCron); err != nil {
		return fmt.Errorf("instruments.sync_cron: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
