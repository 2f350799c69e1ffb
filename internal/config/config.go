package config

import (
	"log"
	"os"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL string
	RedisURL    string

	// External providers
	OpenAIAPIKey    string
	CompletionModel string
	ImageModel      string
	NewsAPIBaseURL  string
	NewsAPIKey      string
	PexelsAPIKey    string

	// Object storage for synthesized feature images
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StoragePublicURL string

	// Downstream audio renderer
	AudioRendererURL    string
	AudioRendererSecret string

	// Brief scheduling (cron expressions, evaluated in BriefTimezone)
	DailyBriefSchedule  string
	WeeklyBriefSchedule string
	BriefTimezone       string

	Env       string
	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		CompletionModel: getEnvWithDefault("COMPLETION_MODEL", "gpt-4o"),
		ImageModel:      getEnvWithDefault("IMAGE_MODEL", "dall-e-3"),
		NewsAPIBaseURL:  os.Getenv("NEWS_API_BASE_URL"),
		NewsAPIKey:      os.Getenv("NEWS_API_KEY"),
		PexelsAPIKey:    os.Getenv("PEXELS_API_KEY"),

		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:    getEnvWithDefault("STORAGE_BUCKET", "brief-images"),
		StoragePublicURL: os.Getenv("STORAGE_PUBLIC_URL"),

		AudioRendererURL:    os.Getenv("AUDIO_RENDERER_URL"),
		AudioRendererSecret: os.Getenv("AUDIO_RENDERER_SECRET"),

		DailyBriefSchedule:  getEnvWithDefault("DAILY_BRIEF_SCHEDULE", "0 6 * * *"),
		WeeklyBriefSchedule: getEnvWithDefault("WEEKLY_BRIEF_SCHEDULE", "0 7 * * 1"),
		BriefTimezone:       getEnvWithDefault("BRIEF_TIMEZONE", "America/Chicago"),

		Env:       getEnvWithDefault("ENV", "development"),
		Port:      getEnvWithDefault("PORT", "8080"),
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("WARNING: DATABASE_URL is not set; the server will fail to start without a database")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
