// Package config loads configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// Generation model
	LLMProvider     Provider
	LLMModel        string
	LLMTemperature  float64
	LLMMaxTokens    int
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Vector store
	VectorProvider   string // "qdrant" or "memory"
	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	VectorCollection string
	VectorBatchSize  int

	// Answer cache
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// SurrealDB persistence (optional; empty URL disables it)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string

	// Chunking
	ChunkStrategy string
	ChunkSize     int
	ChunkOverlap  int

	// Outbound call limits
	MaxConcurrentRequests int
	MaxRetries            int
	RetryDelay            time.Duration
	RetryBackoff          float64

	// Conversation window
	MaxHistory       int
	MaxConversations int
	ContextTurns     int

	// Query classification
	EnableClassification bool

	// Retrieval
	TopK int

	// Prompts
	PromptsFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		LLMProvider:     Provider(getEnv("CHEMBOT_LLM_PROVIDER", "openai")),
		LLMModel:        getEnv("CHEMBOT_LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:  getEnvFloat("CHEMBOT_LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:    getEnvInt("CHEMBOT_LLM_MAX_TOKENS", 1000),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		EmbedProvider:  Provider(getEnv("CHEMBOT_EMBED_PROVIDER", "openai")),
		EmbedModel:     getEnv("CHEMBOT_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDimension: getEnvInt("CHEMBOT_EMBED_DIMENSION", 1536),

		VectorProvider:   getEnv("CHEMBOT_VECTOR_PROVIDER", "qdrant"),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		VectorCollection: getEnv("CHEMBOT_VECTOR_COLLECTION", "chembot_content"),
		VectorBatchSize:  getEnvInt("CHEMBOT_VECTOR_BATCH_SIZE", 100),

		CacheEnabled:  getEnv("REDIS_CACHE_ENABLED", "true") == "true",
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CHEMBOT_CACHE_TTL", 7*24*time.Hour),

		SurrealDBURL:       getEnv("SURREALDB_URL", ""),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "chembot"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "main"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),

		ChunkStrategy: getEnv("CHEMBOT_CHUNKING_STRATEGY", "semantic"),
		ChunkSize:     getEnvInt("CHEMBOT_CHUNK_SIZE", 800),
		ChunkOverlap:  getEnvInt("CHEMBOT_CHUNK_OVERLAP", 150),

		MaxConcurrentRequests: getEnvInt("CHEMBOT_LLM_MAX_CONCURRENT", 5),
		MaxRetries:            getEnvInt("CHEMBOT_LLM_MAX_RETRIES", 3),
		RetryDelay:            getEnvDuration("CHEMBOT_LLM_RETRY_DELAY", time.Second),
		RetryBackoff:          getEnvFloat("CHEMBOT_LLM_RETRY_BACKOFF", 2.0),

		MaxHistory:       getEnvInt("CHEMBOT_CONVERSATION_HISTORY", 5),
		MaxConversations: getEnvInt("CHEMBOT_MAX_CONVERSATIONS", 1000),
		ContextTurns:     getEnvInt("CHEMBOT_CONTEXT_TURNS", 3),

		EnableClassification: getEnv("CHEMBOT_ENABLE_CLASSIFICATION", "true") == "true",

		TopK: getEnvInt("CHEMBOT_TOP_K", 5),

		PromptsFile: getEnv("CHEMBOT_PROMPTS_FILE", ""),

		LogFile:  getEnv("CHEMBOT_LOG_FILE", "/tmp/chembot.log"),
		LogLevel: parseLogLevel(getEnv("CHEMBOT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
