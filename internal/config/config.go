// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	APIName          string        `env:"SPX_API_APP_NAME" default:"SPX Analytics API"`
	APIVersion       string        `env:"SPX_API_APP_VERSION" default:"v1"`
	ServerPort       string        `env:"SPX_API_SERVER_PORT" default:"3007"`
	ServerLogLevel   string        `env:"SPX_API_SERVER_LOG_LEVEL" default:"info"`
	DatabaseDriver   string        `env:"SPX_API_DB_DRIVER" default:"postgres"`
	DatabaseDsn      string        `env:"SPX_API_DB_DSN"`
	DatabaseLogLevel string        `env:"SPX_API_DB_LOG_LEVEL" default:"warn"`
	RedisHost        string        `env:"SPX_API_REDIS_HOST"`
	RedisPort        string        `env:"SPX_API_REDIS_PORT" default:"6379"`
	RedisPassword    string        `env:"SPX_API_REDIS_PASSWORD"`
	ConstituentsURL  string        `env:"SPX_API_CONSTITUENTS_URL" default:"https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"`
	PriceProviderURL string        `env:"SPX_API_PRICE_PROVIDER_URL" default:"https://query1.finance.yahoo.com/v8/finance/chart/"`
	FetchTimeout     time.Duration `env:"SPX_API_FETCH_TIMEOUT" default:"30s"`
	LookbackYears    int           `env:"SPX_API_LOOKBACK_YEARS" default:"5"`
	BenchmarkSymbol  string        `env:"SPX_API_BENCHMARK_SYMBOL" default:"^GSPC"`
	DataRoot         string        `env:"SPX_API_DATA_ROOT" default:"data/stock_dfs"`
	SyncCron         string        `env:"SPX_API_SYNC_CRON" default:"30 22 * * 1-5"`
}

var (
	SingleLine string = "--------------------------------------------------"
)

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration
func Get() (*Config, error) {
	once.Do(func() {
		instance, err = Load(viper.New())
	})
	return instance, err
}

// Load reads every tagged field from v, falling back to the field's default
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	t := reflect.TypeOf(*cfg)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return nil, fmt.Errorf("missing env tag for field %s", field.Name)
		}
		if err := v.BindEnv(envTag); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", envTag, err)
		}
		if def, ok := field.Tag.Lookup("default"); ok {
			v.SetDefault(envTag, def)
		}
	}

	if err := cfg.decode(v); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(v *viper.Viper) error {
	t := reflect.TypeOf(*c)
	rv := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("env")
		target := rv.Field(i)

		switch target.Interface().(type) {
		case time.Duration:
			d, err := time.ParseDuration(v.GetString(key))
			if err != nil {
				return fmt.Errorf("env variable %s is not a duration: %w", key, err)
			}
			target.SetInt(int64(d))
		case int:
			target.SetInt(int64(v.GetInt(key)))
		case string:
			target.SetString(v.GetString(key))
		default:
			return fmt.Errorf("unsupported config field type for %s", field.Name)
		}
	}
	return nil
}

// Validate checks that the required fields are set
func (c *Config) Validate() error {
	if c.DatabaseDsn == "" {
		return fmt.Errorf("env variable SPX_API_DB_DSN is required but not set")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DatabaseDriver)
	}
	if c.LookbackYears <= 0 {
		return fmt.Errorf("SPX_API_LOOKBACK_YEARS must be positive, got %d", c.LookbackYears)
	}
	if c.BenchmarkSymbol == "" {
		return fmt.Errorf("SPX_API_BENCHMARK_SYMBOL must not be empty")
	}
	return nil
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n" + SingleLine + "\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString(SingleLine + "\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := fmt.Sprint(v.Field(i).Interface())
		value = maskSensitiveField(field.Name, value)
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString(SingleLine + "\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "password"}

	fieldNameLower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
