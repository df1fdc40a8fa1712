package di

import (
	"flag"
	"path/filepath"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Channel statistics
	YouTubeAPIKey string

	// Agent flags
	MaxRounds int
	Timeout   time.Duration

	// Run flags
	ThreadID  string
	BrandID   string
	List      bool
	Limit     int
	ShowSteps bool
	DataDir   string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := registerFlags(flag.CommandLine)
	flag.Parse()
	return flags
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

func registerFlags(fs *flag.FlagSet) *CLIFlags {
	flags := &CLIFlags{}

	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, bedrock, gemini)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 1500, "Maximum tokens per completion")
	fs.Float64Var(&flags.Temperature, "temperature", 0.7, "Sampling temperature")

	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-5-sonnet-20240620-v1:0", "Bedrock model ID")

	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-pro", "Gemini model name")

	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o", "OpenAI model name")

	fs.StringVar(&flags.YouTubeAPIKey, "youtube-api-key", "", "YouTube Data API key for live channel statistics")

	fs.IntVar(&flags.MaxRounds, "max-rounds", 5, "Maximum reasoning rounds per draft")
	fs.DurationVar(&flags.Timeout, "timeout", 45*time.Second, "Overall deadline per draft")

	fs.StringVar(&flags.ThreadID, "thread", "", "Thread to draft a reply for")
	fs.StringVar(&flags.BrandID, "brand", "", "Brand to negotiate for (defaults to agent.default_brand_id)")
	fs.BoolVar(&flags.List, "list", false, "List recent threads instead of drafting")
	fs.IntVar(&flags.Limit, "limit", 10, "Number of threads to list")
	fs.BoolVar(&flags.ShowSteps, "steps", false, "Print the tool calls made while drafting")
	fs.StringVar(&flags.DataDir, "data", "data", "Directory holding threads.json, brands.json and profiles.json")

	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}
	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)

	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
	case "gemini":
		if flags.GeminiAPIKey != "" {
			v.Set("gemini.api_key", flags.GeminiAPIKey)
		}
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
	case "openai":
		if flags.OpenAIAPIKey != "" {
			v.Set("openai.api_key", flags.OpenAIAPIKey)
		}
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
	}

	if flags.YouTubeAPIKey != "" {
		v.Set("youtube.api_key", flags.YouTubeAPIKey)
	}

	v.Set("agent.max_rounds", flags.MaxRounds)
	v.Set("agent.timeout", flags.Timeout.String())
	if flags.BrandID != "" {
		v.Set("agent.default_brand_id", flags.BrandID)
	}

	// the CLI never delivers mail or shares locks
	v.Set("store.type", "memory")
	v.Set("store.threads_path", filepath.Join(flags.DataDir, "threads.json"))
	v.Set("store.brands_path", filepath.Join(flags.DataDir, "brands.json"))
	v.Set("store.profiles_path", filepath.Join(flags.DataDir, "profiles.json"))
	v.Set("lock.type", "memory")
	v.Set("mail.outbound.type", "log")
	v.Set("cache.type", "memory")
	v.Set("cache.cleanup_frequency", "0s")

	return config.NewFromViper(v)
}
