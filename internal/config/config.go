package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"VCPSentinel/internal/rsrating"
	"VCPSentinel/internal/signal"
	"VCPSentinel/internal/strategy"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderCSV   = "csv"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider    string `yaml:"provider"`
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		CSVDir      string `yaml:"csv_dir"`
		Benchmark   string `yaml:"benchmark"`
		HistoryDays int    `yaml:"history_days"`
	} `yaml:"data_source"`
	Symbols  []string `yaml:"symbols"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	State struct {
		File          string `yaml:"file"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"state"`
	VCP     VCP             `yaml:"vcp"`
	Signal  signal.Settings `yaml:"signal"`
	RS      RS              `yaml:"rs"`
	Workers int             `yaml:"workers"`
	Proxy   string          `yaml:"proxy"`
}

// RS holds the rating weights and the smallest universe rated.
type RS struct {
	rsrating.Weights `yaml:",inline"`
	MinUniverse      int `yaml:"min_universe"`
}

// VCP selects a preset and optionally overrides individual parameters.
// Zero values keep the preset's value; boolean flags can only switch a
// criterion on.
type VCP struct {
	Preset          string `yaml:"preset"`
	strategy.Params `yaml:",inline"`
}

// Load reads config from a YAML file, then a .env file in the working
// directory, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, ".env")
}

// LoadWithEnv is Load with an explicit .env path. A missing file is ignored.
func LoadWithEnv(path, envFile string) (*Config, error) {
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

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] load %s: %v", envFile, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = splitList(v)
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.State.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.State.RedisPassword = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("VCP_PRESET"); v != "" {
		c.VCP.Preset = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Benchmark == "" {
		c.DataSource.Benchmark = "^GSPC"
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 600
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 21 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/vcp_sentinel.db"
	}
	if c.State.File == "" {
		c.State.File = "data/signal_state.json"
	}
	if c.VCP.Preset == "" {
		c.VCP.Preset = strategy.PresetBasic
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	for i, s := range c.Symbols {
		c.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	case ProviderCSV:
		if c.DataSource.CSVDir == "" {
			return fmt.Errorf("data_source.csv_dir is required for the csv provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	p, err := c.StrategyParams()
	if err != nil {
		return err
	}
	if c.DataSource.HistoryDays < p.MinHistory() {
		return fmt.Errorf("data_source.history_days %d is shorter than the required history %d", c.DataSource.HistoryDays, p.MinHistory())
	}
	s, err := c.SignalSettings()
	if err != nil {
		return err
	}
	return s.Validate()
}

// StrategyParams resolves the preset and applies non-zero overrides.
func (c *Config) StrategyParams() (strategy.Params, error) {
	p, err := strategy.PresetParams(c.VCP.Preset)
	if err != nil {
		return p, fmt.Errorf("vcp.preset: %w", err)
	}
	o := c.VCP.Params
	setInt(&p.FastMAPeriod, o.FastMAPeriod)
	setInt(&p.MediumMAPeriod, o.MediumMAPeriod)
	setInt(&p.SlowMAPeriod, o.SlowMAPeriod)
	setInt(&p.TrendPeriod, o.TrendPeriod)
	setInt(&p.RSTrendPeriod, o.RSTrendPeriod)
	setInt(&p.WeekWindow, o.WeekWindow)
	setInt(&p.ExtremaOrder, o.ExtremaOrder)
	setInt(&p.MinContractions, o.MinContractions)
	setInt(&p.MaxContractions, o.MaxContractions)
	setFloat(&p.MaxContractionDepth, o.MaxContractionDepth)
	setFloat(&p.MinContractionDepth, o.MinContractionDepth)
	setFloat(&p.MinWeeks, o.MinWeeks)
	setInt(&p.LookbackPeriod, o.LookbackPeriod)
	setInt(&p.VolShortPeriod, o.VolShortPeriod)
	setInt(&p.VolLongPeriod, o.VolLongPeriod)
	setFloat(&p.MinRSRating, o.MinRSRating)
	p.RequireRSSlope = p.RequireRSSlope || o.RequireRSSlope
	p.RequireRSRating = p.RequireRSRating || o.RequireRSRating
	p.RequireConsolidation = p.RequireConsolidation || o.RequireConsolidation
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("vcp: %w", err)
	}
	return p, nil
}

// SignalSettings resolves the preset's machine settings and applies overrides.
func (c *Config) SignalSettings() (signal.Settings, error) {
	s, err := signal.PresetSettings(c.VCP.Preset)
	if err != nil {
		return s, fmt.Errorf("vcp.preset: %w", err)
	}
	setFloat(&s.ProgressThreshold, c.Signal.ProgressThreshold)
	setInt(&s.EMASellPeriod, c.Signal.EMASellPeriod)
	return s, nil
}

// RSWeights returns the configured weights, or the defaults if none are set.
func (c *Config) RSWeights() rsrating.Weights {
	if c.RS.Weights == (rsrating.Weights{}) {
		return rsrating.DefaultWeights()
	}
	return c.RS.Weights
}

// RSMinUniverse returns the configured minimum rated universe, or the default.
func (c *Config) RSMinUniverse() int {
	if c.RS.MinUniverse <= 0 {
		return rsrating.DefaultMinUniverse
	}
	return c.RS.MinUniverse
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
