package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   string
	LogFormat  string
	LogFile    string

	// DefaultOwnerID is used when a request carries no X-Owner-ID header.
	DefaultOwnerID int64

	AIBackend     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AssistantID   string
	ImageModel    string
	ImageSize     string
	ClaudeAPIKey  string
	ClaudeModel   string
	OllamaHost    string
	OllamaModel   string

	PollInterval     time.Duration
	PollTimeout      time.Duration
	ImageConcurrency int

	// RecipeRatePerMinute caps generate calls per owner. Zero disables the limit.
	RecipeRatePerMinute int

	IllustrationStore string
	IllustrationPath  string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is applied first without overriding variables that
// are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":3002"),
		DBPath:              getEnv("DB_PATH", "/data/eatai.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		LogFile:             getEnv("LOG_FILE", ""),
		DefaultOwnerID:      int64(getInt("DEFAULT_OWNER_ID", 1)),
		AIBackend:           getEnv("AI_BACKEND", "openai"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AssistantID:         getEnv("OPENAI_ASSISTANT_ID", ""),
		ImageModel:          getEnv("OPENAI_IMAGE_MODEL", "dall-e-2"),
		ImageSize:           getEnv("OPENAI_IMAGE_SIZE", "512x512"),
		ClaudeAPIKey:        getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:         getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:          getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llama3.1"),
		PollInterval:        getDuration("RECIPE_POLL_INTERVAL", time.Second),
		PollTimeout:         getDuration("RECIPE_POLL_TIMEOUT", 60*time.Second),
		ImageConcurrency:    getInt("RECIPE_IMAGE_CONCURRENCY", 3),
		RecipeRatePerMinute: getInt("RECIPE_RATE_PER_MINUTE", 6),
		IllustrationStore:   getEnv("ILLUSTRATION_STORE", "none"),
		IllustrationPath:    getEnv("ILLUSTRATION_LOCAL_PATH", "/data/illustrations"),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getDuration accepts Go duration strings ("1s", "500ms").
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
