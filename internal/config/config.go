package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	RedisAddr   string // Optional: empty disables the read cache

	// Storage core tuning
	ChunkSizeBytes      int      // Size of a single stored chunk
	MaxListLimit        int64    // Hard ceiling for the list page size
	DefaultListLimit    int64    // Page size used when the client omits limit
	AllowedContentTypes []string // Accepted content-type prefixes, e.g. "image/"
	SweepSchedule       string   // Cron expression for the orphan sweep; empty disables
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "media_db"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "media-store"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		// 255KiB, the classic GridFS chunk size
		ChunkSizeBytes:      getEnvInt("CHUNK_SIZE_BYTES", 255*1024),
		MaxListLimit:        int64(getEnvInt("MAX_LIST_LIMIT", 1000)),
		DefaultListLimit:    int64(getEnvInt("DEFAULT_LIST_LIMIT", 50)),
		AllowedContentTypes: getEnvList("ALLOWED_CONTENT_TYPES", "image/,video/"),
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "@hourly"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Printf("Invalid value for %s: %q, using default %d\n", key, value, fallback)
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
