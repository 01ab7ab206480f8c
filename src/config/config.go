package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	GhostfolioURL         string
	GhostfolioAccessToken string
	WatchFolder           string
	DefaultAccountName    string
	DatabasePath          string
	LogLevel              string
	CacheExpiration       time.Duration
	MaxFileSizeBytes      int64
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	accessToken := getEnv("GHOSTFOLIO_ACCESS_TOKEN", "")
	if accessToken == "" {
		log.Println("WARNING: GHOSTFOLIO_ACCESS_TOKEN is not set. Remote synchronization will fail until it is configured.")
	}

	cacheExpirationStr := getEnv("CACHE_EXPIRATION", "5m")
	cacheExpiration, err := time.ParseDuration(cacheExpirationStr)
	if err != nil {
		log.Printf("WARNING: Invalid CACHE_EXPIRATION format '%s'. Using default 5m. Error: %v", cacheExpirationStr, err)
		cacheExpiration = 5 * time.Minute
	}

	maxFileSizeBytesStr := getEnv("MAX_FILE_SIZE_BYTES", "10485760")
	maxFileSizeBytes, err := strconv.ParseInt(maxFileSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_FILE_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxFileSizeBytesStr, err)
		maxFileSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		GhostfolioURL:         getEnv("GHOSTFOLIO_URL", "http://localhost:3333"),
		GhostfolioAccessToken: accessToken,
		WatchFolder:           getEnv("WATCH_FOLDER", "./files"),
		DefaultAccountName:    getEnv("GHOSTFOLIO_ACCOUNT_NAME", "Default"),
		DatabasePath:          getEnv("DATABASE_PATH", "./sidekick.db"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		CacheExpiration:       cacheExpiration,
		MaxFileSizeBytes:      maxFileSizeBytes,
	}

	log.Printf("Configuration loaded: GhostfolioURL=%s, WatchFolder=%s, LogLevel=%s, DBPath=%s",
		Cfg.GhostfolioURL, Cfg.WatchFolder, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}
