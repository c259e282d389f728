package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"crisisReplay/internal/crisis"
)

type Config struct {
	TelegramToken    string
	WebhookPublicURL string `validate:"required_with=TelegramToken"`
	OpenAIKey        string
	Port             string `validate:"required,numeric"`
	DBPath           string `validate:"required"`
	PriceDBURL       string

	RecoveryMonths int      `validate:"gte=0,lte=120"`
	InitialValue   float64  `validate:"gt=0"`
	RiskFreeRate   float64  `validate:"gte=0,lt=1"`
	DefaultTickers []string `validate:"min=1,dive,required"`

	// Crises are added to the built-in catalog.
	Crises []crisis.Crisis
}

// fileConfig is the YAML overlay read from CONFIG_FILE. Zero values leave the
// environment settings untouched.
type fileConfig struct {
	Port           string          `yaml:"port"`
	DBPath         string          `yaml:"db_path"`
	PriceDBURL     string          `yaml:"price_db_url"`
	RecoveryMonths *int            `yaml:"recovery_months"`
	InitialValue   *float64        `yaml:"initial_value"`
	RiskFreeRate   *float64        `yaml:"risk_free_rate"`
	DefaultTickers []string        `yaml:"default_tickers"`
	Crises         []crisis.Crisis `yaml:"crises"`
}

func Load() (Config, error) {
	cfg := Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		Port:             envOr("PORT", "9095"),
		DBPath:           envOr("DB_PATH", "/app/data/replay.db"),
		PriceDBURL:       os.Getenv("PRICE_DB_URL"),
		DefaultTickers:   append([]string(nil), crisis.DefaultTickers...),
	}

	var err error
	if cfg.RecoveryMonths, err = envInt("RECOVERY_MONTHS", crisis.DefaultRecoveryMonths); err != nil {
		return Config{}, err
	}
	if cfg.InitialValue, err = envFloat("INITIAL_VALUE", 100); err != nil {
		return Config{}, err
	}
	if cfg.RiskFreeRate, err = envFloat("RISK_FREE_RATE", 0); err != nil {
		return Config{}, err
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}

	if f.Port != "" {
		c.Port = f.Port
	}
	if f.DBPath != "" {
		c.DBPath = f.DBPath
	}
	if f.PriceDBURL != "" {
		c.PriceDBURL = f.PriceDBURL
	}
	if f.RecoveryMonths != nil {
		c.RecoveryMonths = *f.RecoveryMonths
	}
	if f.InitialValue != nil {
		c.InitialValue = *f.InitialValue
	}
	if f.RiskFreeRate != nil {
		c.RiskFreeRate = *f.RiskFreeRate
	}
	if len(f.DefaultTickers) > 0 {
		c.DefaultTickers = c.DefaultTickers[:0]
		for _, t := range f.DefaultTickers {
			c.DefaultTickers = append(c.DefaultTickers, strings.ToUpper(strings.TrimSpace(t)))
		}
	}
	c.Crises = append(c.Crises, f.Crises...)
	return nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// Catalog is the built-in crisis catalog plus any crises from the config file.
func (c Config) Catalog() (*crisis.Catalog, error) {
	cat := crisis.Default()
	for _, cr := range c.Crises {
		if err := cat.Add(cr); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("env %s: %q is not an integer", k, v)
	}
	return n, nil
}

func envFloat(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Errorf("env %s: %q is not a number", k, v)
	}
	return f, nil
}
