package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// HistoryLimit is the number of most recent snippets included in a report.
const HistoryLimit = 30

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	ChatID           int64  `env:"CHAT_ID,required"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	StoreDSN string `env:"STORE_DSN"`

	// Schedule
	SendHour      int `env:"SEND_HOUR" envDefault:"8"`
	SendMinute    int `env:"SEND_MINUTE" envDefault:"0"`
	TZOffsetHours int `env:"TZ_OFFSET_HOURS" envDefault:"-3"`

	// Timeouts
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"30s"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`

	// Reports
	ReportDir string `env:"REPORT_DIR"`

	// Observability
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY" envDefault:"true"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Location is the fixed civil-time zone used for the schedule and for
// record timestamps, independent of the host zone.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TZOffsetHours), c.TZOffsetHours*3600)
}

// Load parses the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New is Load that exits the process on failure.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.SendHour < 0 || c.SendHour > 23 {
		errs = append(errs, fmt.Errorf("SEND_HOUR must be in 0..23, got %d", c.SendHour))
	}
	if c.SendMinute < 0 || c.SendMinute > 59 {
		errs = append(errs, fmt.Errorf("SEND_MINUTE must be in 0..59, got %d", c.SendMinute))
	}
	if c.TZOffsetHours < -12 || c.TZOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("TZ_OFFSET_HOURS must be in -12..14, got %d", c.TZOffsetHours))
	}
	if c.ChatID == 0 {
		errs = append(errs, errors.New("CHAT_ID must be non-zero"))
	}
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			errs = append(errs, errors.New("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for the yandex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider: %s", c.LLMProvider))
	}
	if c.GenerationTimeout <= 0 || c.DeliveryTimeout <= 0 || c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	return errors.Join(errs...)
}
