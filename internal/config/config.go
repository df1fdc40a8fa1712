package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. OUTREACH_OPENAI_API_KEY
const EnvPrefix = "OUTREACH"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewFromFile("")
}

// NewFromFile loads configuration from an explicit file, or searches the
// default locations when path is empty
func NewFromFile(path string) (*Config, error) {
	v := NewEmptyViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/outreach-agent/")
		v.AddConfigPath("$HOME/.outreach-agent")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and environment overrides
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")

	// Agent
	v.SetDefault("agent.max_rounds", 5)
	v.SetDefault("agent.timeout", "45s")
	v.SetDefault("agent.max_body_size", 4000)
	v.SetDefault("agent.max_step_output", 500)
	v.SetDefault("agent.default_brand_id", "perplexity")

	// OpenAI
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o")
	v.SetDefault("openai.max_tokens", 1500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 1.0)

	// Bedrock
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("bedrock.max_tokens", 1500)
	v.SetDefault("bedrock.temperature", 0.7)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-pro")
	v.SetDefault("gemini.max_tokens", 1500)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.9)

	// YouTube live statistics
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.endpoint", "")

	// Live metrics cache
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/metrics_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/outreach?parseTime=true")

	// Data
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/threads.db")
	v.SetDefault("store.threads_path", "data/threads.json")
	v.SetDefault("store.brands_path", "data/brands.json")
	v.SetDefault("store.profiles_path", "data/profiles.json")

	// Thread locking
	v.SetDefault("lock.type", "memory")
	v.SetDefault("lock.redis_address", "localhost:6379")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.prefix", "outreach:lock:")
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("lock.retry_interval", "50ms")
	v.SetDefault("lock.max_wait", "10s")

	// Mail
	v.SetDefault("mail.outbound.type", "log")
	v.SetDefault("mail.outbound.address", "localhost:25")
	v.SetDefault("mail.outbound.username", "")
	v.SetDefault("mail.outbound.password", "")
	v.SetDefault("mail.outbound.timeout", "30s")
	v.SetDefault("mail.inbound.enabled", false)
	v.SetDefault("mail.inbound.listen_address", "0.0.0.0:2525")
	v.SetDefault("mail.inbound.domain", "localhost")
	v.SetDefault("mail.inbound.max_message_bytes", 10*1024*1024)
	v.SetDefault("mail.inbound.allowed_domains", []string{})

	// HTTP server
	v.SetDefault("server.listen_address", "0.0.0.0:8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
