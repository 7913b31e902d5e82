package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"btracker/internal/calculator"
	"btracker/internal/ingest"
)

// Config holds all application configuration.
type Config struct {
	Input struct {
		Path      string `yaml:"path"`
		Delimiter string `yaml:"delimiter"`
	} `yaml:"input"`
	Output struct {
		Dir           string `yaml:"dir"`
		Title         string `yaml:"title"`
		RepositoryURL string `yaml:"repository_url"`
		AnalyticsCSV  string `yaml:"analytics_csv"`
		HistogramCSV  string `yaml:"histogram_csv"`
		YearlyCSV     string `yaml:"yearly_csv"`
		Workbook      string `yaml:"workbook"`
		HTML          string `yaml:"html"`
		ChartWidth    int    `yaml:"chart_width"`
		ChartHeight   int    `yaml:"chart_height"`
		CSVBOM        bool   `yaml:"csv_bom"`
	} `yaml:"output"`
	Analytics struct {
		Window         int       `yaml:"window"`
		ShortLag       int       `yaml:"short_lag"`
		LongLag        int       `yaml:"long_lag"`
		HistogramEdges []float64 `yaml:"histogram_edges"`
		YearlyPolicy   string    `yaml:"yearly_policy"`
	} `yaml:"analytics"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
		StateFile  string `yaml:"state_file"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// overrides maps BTRACKER_* environment variables onto Config fields.
type overrides struct {
	InputPath      string `envconfig:"INPUT_PATH"`
	OutputDir      string `envconfig:"OUTPUT_DIR"`
	CSVBOM         *bool  `envconfig:"CSV_BOM"`
	Window         int    `envconfig:"WINDOW"`
	YearlyPolicy   string `envconfig:"YEARLY_POLICY"`
	SQLitePath     string `envconfig:"SQLITE_PATH"`
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	Cron           string `envconfig:"CRON"`
	RunOnStart     *bool  `envconfig:"RUN_ON_START"`
	Proxy          string `envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env overrides
	if err := envconfig.Process("BTRACKER", &env); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	if env.InputPath != "" {
		c.Input.Path = env.InputPath
	}
	if env.OutputDir != "" {
		c.Output.Dir = env.OutputDir
	}
	if env.CSVBOM != nil {
		c.Output.CSVBOM = *env.CSVBOM
	}
	if env.Window != 0 {
		c.Analytics.Window = env.Window
	}
	if env.YearlyPolicy != "" {
		c.Analytics.YearlyPolicy = env.YearlyPolicy
	}
	if env.SQLitePath != "" {
		c.Database.SQLitePath = env.SQLitePath
	}
	if env.TelegramToken != "" {
		c.Telegram.BotToken = env.TelegramToken
	}
	if env.TelegramChatID != "" {
		c.Telegram.ChatID = env.TelegramChatID
	}
	if env.Cron != "" {
		c.Schedule.Cron = env.Cron
	}
	if env.RunOnStart != nil {
		c.Schedule.RunOnStart = *env.RunOnStart
	}
	if env.Proxy != "" {
		c.Proxy = env.Proxy
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = "resources/data/historical_data.tsv"
	}
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = string(ingest.DelimiterAuto)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.Title == "" {
		c.Output.Title = "BTC Price History"
	}
	if c.Output.AnalyticsCSV == "" {
		c.Output.AnalyticsCSV = "price_analytics.csv"
	}
	if c.Output.HistogramCSV == "" {
		c.Output.HistogramCSV = "histogram.csv"
	}
	if c.Output.YearlyCSV == "" {
		c.Output.YearlyCSV = "yearly_summary.csv"
	}
	if c.Output.Workbook == "" {
		c.Output.Workbook = "btracker.xlsx"
	}
	if c.Output.HTML == "" {
		c.Output.HTML = "index.html"
	}
	if c.Output.ChartWidth == 0 {
		c.Output.ChartWidth = 1024
	}
	if c.Output.ChartHeight == 0 {
		c.Output.ChartHeight = 768
	}
	if c.Analytics.Window == 0 {
		c.Analytics.Window = calculator.DefaultWindow
	}
	if c.Analytics.ShortLag == 0 {
		c.Analytics.ShortLag = 1
	}
	if c.Analytics.LongLag == 0 {
		c.Analytics.LongLag = calculator.DefaultLongLag
	}
	if len(c.Analytics.HistogramEdges) == 0 {
		c.Analytics.HistogramEdges = append([]float64(nil), calculator.DefaultHistogramEdges...)
	}
	if c.Analytics.YearlyPolicy == "" {
		c.Analytics.YearlyPolicy = string(calculator.PolicyExact)
	}
	if c.Schedule.StateFile == "" {
		c.Schedule.StateFile = "output/last_run.json"
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	switch ingest.Delimiter(c.Input.Delimiter) {
	case ingest.DelimiterAuto, ingest.DelimiterPipe, ingest.DelimiterTab:
	default:
		return fmt.Errorf("input.delimiter must be auto, pipe or tab, got %q", c.Input.Delimiter)
	}
	if c.Analytics.Window <= 0 {
		return fmt.Errorf("analytics.window must be positive")
	}
	if c.Analytics.ShortLag <= 0 || c.Analytics.LongLag <= 0 {
		return fmt.Errorf("analytics.short_lag and analytics.long_lag must be positive")
	}
	if len(c.Analytics.HistogramEdges) != 11 {
		return fmt.Errorf("analytics.histogram_edges needs 11 edges for 12 bins, got %d", len(c.Analytics.HistogramEdges))
	}
	if err := calculator.ValidateEdges(c.Analytics.HistogramEdges); err != nil {
		return fmt.Errorf("analytics.histogram_edges: %w", err)
	}
	if !calculator.YearlyPolicy(c.Analytics.YearlyPolicy).Valid() {
		return fmt.Errorf("analytics.yearly_policy must be exact or first_last, got %q", c.Analytics.YearlyPolicy)
	}
	if c.Output.ChartWidth <= 0 || c.Output.ChartHeight <= 0 {
		return fmt.Errorf("output.chart_width and output.chart_height must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.NewParser(CronFields).Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}

// CronFields is the cron format used by the scheduler (leading seconds field).
const CronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Scheduled reports whether a cron schedule is configured.
func (c *Config) Scheduled() bool { return c.Schedule.Cron != "" }

// NotifyEnabled reports whether Telegram delivery is configured.
func (c *Config) NotifyEnabled() bool { return c.Telegram.BotToken != "" }
