package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string
	MetricsPort string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	QdrantURL        string
	QdrantCollection string

	SearchDefaultsPath string
	CacheSweepInterval time.Duration

	LLMRequestsPerSecond float64
	LLMBurst             int
}

func Load() Config {
	return Config{
		ServiceName: mustEnv("SERVICE_NAME", "ragline"),
		LogLevel:    mustEnv("LOG_LEVEL", "info"),
		MetricsPort: mustEnv("METRICS_PORT", "9090"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "chunks"),

		SearchDefaultsPath: mustEnv("SEARCH_DEFAULTS_PATH", ""),
		CacheSweepInterval: time.Duration(mustEnvInt("CACHE_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,

		LLMRequestsPerSecond: mustEnvFloat("LLM_REQUESTS_PER_SECOND", 2.0),
		LLMBurst:             mustEnvInt("LLM_BURST", 4),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
