package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig
	LLM      LLMConfig
	Identify IdentifyConfig
	Batch    BatchConfig
}

// StoreConfig holds template-store configuration
type StoreConfig struct {
	Path string
}

// LLMConfig holds text-generation service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// IdentifyConfig holds multi-entity table identification tuning
type IdentifyConfig struct {
	MatchThreshold float64
	AnchorBonus    float64
}

// BatchConfig holds worker-pool configuration for batch extraction runs
type BatchConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: getEnv("DOCFORGE_DB_PATH", "docforge.db"),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Identify: IdentifyConfig{
			MatchThreshold: getEnvAsFloat64("DOCFORGE_MATCH_THRESHOLD", 0.5),
			AnchorBonus:    getEnvAsFloat64("DOCFORGE_ANCHOR_BONUS", 0.25),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("DOCFORGE_WORKERS", 4),
			QueueSize: getEnvAsInt("DOCFORGE_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("DOCFORGE_PROCESS_TIMEOUT", 2*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateForGeneration checks the configuration needed for rule generation.
func (c *Config) ValidateForGeneration() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_MODEL is required", ErrInvalidInput)
	}
	return nil
}
