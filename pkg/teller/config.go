package teller

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Vendors       VendorsConfig       `mapstructure:"vendors"`
	Transport     TransportConfig     `mapstructure:"transport"`
	Store         StoreConfig         `mapstructure:"store"`
	Agent         AgentConfig         `mapstructure:"agent"`
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	LLM VendorConfig `mapstructure:"llm"`
}

type TransportConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// StoreConfig locates the CSV tables. File names resolve under Dir
// unless given as absolute paths.
type StoreConfig struct {
	Dir          string `mapstructure:"dir"`
	UsersFile    string `mapstructure:"users_file"`
	LoansFile    string `mapstructure:"loans_file"`
	DepositsFile string `mapstructure:"deposits_file"`
}

func (c StoreConfig) UsersPath() string    { return c.resolve(c.UsersFile) }
func (c StoreConfig) LoansPath() string    { return c.resolve(c.LoansFile) }
func (c StoreConfig) DepositsPath() string { return c.resolve(c.DepositsFile) }

func (c StoreConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

type AgentConfig struct {
	SystemPrompt    string  `mapstructure:"system_prompt"`
	MaxIterations   int     `mapstructure:"max_iterations"`
	RetryAttempts   int     `mapstructure:"retry_attempts"`
	RetryBackoffMS  int     `mapstructure:"retry_backoff_ms"`
	RetryMaxDelayMS int     `mapstructure:"retry_max_delay_ms"`
	RetryJitter     float64 `mapstructure:"retry_jitter"`
}

type ObservabilityConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("vendors.llm.provider", "openrouter")
	v.SetDefault("transport.provider", "chat")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.users_file", "bank_users.csv")
	v.SetDefault("store.loans_file", "approved_loans.csv")
	v.SetDefault("store.deposits_file", "fixed_deposits.csv")
	v.SetDefault("agent.max_iterations", 8)
	v.SetDefault("agent.retry_attempts", 3)
	v.SetDefault("agent.retry_backoff_ms", 200)
	v.SetDefault("agent.retry_max_delay_ms", 2000)
	v.SetDefault("agent.retry_jitter", 0.2)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("observability.metrics_path", "")
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vendors.LLM.Provider) == "" {
		return fmt.Errorf("vendors.llm.provider is required")
	}
	if strings.TrimSpace(c.Transport.Provider) == "" {
		return fmt.Errorf("transport.provider is required")
	}
	if strings.TrimSpace(c.Store.Dir) == "" && !filepath.IsAbs(c.Store.UsersFile) {
		return fmt.Errorf("store.dir is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be at least 1")
	}
	return nil
}

// expandEnvStrings substitutes ${VAR} references so secrets can stay
// out of the config file.
func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.LLM.Settings = expandSettings(cfg.Vendors.LLM.Settings)
	cfg.Transport.Settings = expandSettings(cfg.Transport.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				val := v.MapIndex(key)
				expanded := os.ExpandEnv(val.String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}
