package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// AgentConfig bounds the orchestration loop
type AgentConfig struct {
	MaxRounds      int
	Timeout        time.Duration
	MaxBodySize    int
	MaxStepOutput  int
	DefaultBrandID string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// YouTubeConfig configures live channel statistics. An empty key disables live lookups.
type YouTubeConfig struct {
	APIKey   string
	Endpoint string
}

// CacheConfig configures the live metrics cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// StoreConfig configures where threads, brands and channel profiles come from
type StoreConfig struct {
	Type         string
	SQLitePath   string
	ThreadsPath  string
	BrandsPath   string
	ProfilesPath string
}

// LockConfig configures per-thread locking
type LockConfig struct {
	Type          string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
	MaxWait       time.Duration
}

// MailConfig configures outbound delivery and the inbound listener
type MailConfig struct {
	OutboundType    string
	OutboundAddress string
	Username        string
	Password        string
	OutboundTimeout time.Duration

	InboundEnabled  bool
	InboundAddress  string
	InboundDomain   string
	MaxMessageBytes int64
	AllowedDomains  []string
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	ListenAddress   string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetAgent returns the agent loop configuration
func (c *Config) GetAgent() (AgentConfig, error) {
	timeout, err := c.GetDuration("agent.timeout")
	if err != nil {
		return AgentConfig{}, err
	}
	return AgentConfig{
		MaxRounds:      c.GetInt("agent.max_rounds"),
		Timeout:        timeout,
		MaxBodySize:    c.GetInt("agent.max_body_size"),
		MaxStepOutput:  c.GetInt("agent.max_step_output"),
		DefaultBrandID: c.GetString("agent.default_brand_id"),
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetYouTube returns the YouTube configuration
func (c *Config) GetYouTube() YouTubeConfig {
	return YouTubeConfig{
		APIKey:   c.GetString("youtube.api_key"),
		Endpoint: c.GetString("youtube.endpoint"),
	}
}

// GetCache returns the live metrics cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetStore returns the data store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:         c.GetString("store.type"),
		SQLitePath:   c.GetString("store.sqlite_path"),
		ThreadsPath:  c.GetString("store.threads_path"),
		BrandsPath:   c.GetString("store.brands_path"),
		ProfilesPath: c.GetString("store.profiles_path"),
	}
}

// GetLock returns the lock configuration
func (c *Config) GetLock() (LockConfig, error) {
	ttl, err := c.GetDuration("lock.ttl")
	if err != nil {
		return LockConfig{}, err
	}
	retry, err := c.GetDuration("lock.retry_interval")
	if err != nil {
		return LockConfig{}, err
	}
	maxWait, err := c.GetDuration("lock.max_wait")
	if err != nil {
		return LockConfig{}, err
	}
	return LockConfig{
		Type:          c.GetString("lock.type"),
		RedisAddress:  c.GetString("lock.redis_address"),
		RedisPassword: c.GetString("lock.redis_password"),
		RedisDB:       c.GetInt("lock.redis_db"),
		Prefix:        c.GetString("lock.prefix"),
		TTL:           ttl,
		RetryInterval: retry,
		MaxWait:       maxWait,
	}, nil
}

// GetMail returns the mail configuration
func (c *Config) GetMail() (MailConfig, error) {
	timeout, err := c.GetDuration("mail.outbound.timeout")
	if err != nil {
		return MailConfig{}, err
	}
	return MailConfig{
		OutboundType:    c.GetString("mail.outbound.type"),
		OutboundAddress: c.GetString("mail.outbound.address"),
		Username:        c.GetString("mail.outbound.username"),
		Password:        c.GetString("mail.outbound.password"),
		OutboundTimeout: timeout,
		InboundEnabled:  c.GetBool("mail.inbound.enabled"),
		InboundAddress:  c.GetString("mail.inbound.listen_address"),
		InboundDomain:   c.GetString("mail.inbound.domain"),
		MaxMessageBytes: int64(c.GetInt("mail.inbound.max_message_bytes")),
		AllowedDomains:  c.GetStringSlice("mail.inbound.allowed_domains"),
	}, nil
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdown, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		CORSOrigins:     c.GetStringSlice("server.cors_origins"),
		ReadTimeout:     read,
		WriteTimeout:    write,
		ShutdownTimeout: shutdown,
	}, nil
}
