package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv    string
	Debug     bool
	Version   string
	SentryDSN string

	// Telegram source channel
	BotToken          string
	ChatID            string
	ChannelName       string
	ChannelAvatar     string
	AuthorDesignation string

	// Sync policy
	AllowForwardedPosts      bool
	AllowedForwardChannelIDs []string
	SkipHashtag              string
	SyncBatchLimit           int
	SyncInterval             time.Duration

	// Postgres
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// SFTP mirror
	SFTPHost            string
	SFTPPort            int
	SFTPUser            string
	SFTPPassword        string
	SFTPBasePath        string
	PublicUploadBaseURL string

	// HTTP trigger surface
	Port        int
	SecretToken string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))
	allowForwards, _ := strconv.ParseBool(getEnv("ALLOW_FORWARDED_POSTS", "false"))

	batchLimit, err := strconv.Atoi(getEnv("SYNC_BATCH_LIMIT", "100"))
	if err != nil || batchLimit <= 0 {
		return nil, fmt.Errorf("invalid SYNC_BATCH_LIMIT: %q", getEnv("SYNC_BATCH_LIMIT", "100"))
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	sftpPort, err := strconv.Atoi(getEnv("SFTP_PORT", "22"))
	if err != nil {
		return nil, fmt.Errorf("invalid SFTP_PORT: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Debug:     debug,
		Version:   getEnv("VERSION", "dev"),
		SentryDSN: getEnv("SENTRY_DSN", ""),

		BotToken:          getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:            strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID", "")),
		ChannelName:       getEnv("TELEGRAM_CHANNEL", "Telegram Channel"),
		ChannelAvatar:     getEnv("TELEGRAM_CHANNEL_AVATAR", "/images/blog/telegram-avatar.png"),
		AuthorDesignation: getEnv("TELEGRAM_AUTHOR_DESIGNATION", "Telegram Channel"),

		AllowForwardedPosts:      allowForwards,
		AllowedForwardChannelIDs: splitList(getEnv("ALLOWED_FORWARD_CHANNEL_IDS", "")),
		SkipHashtag:              strings.ToLower(strings.TrimPrefix(getEnv("TELEGRAM_SKIP_HASHTAG", ""), "#")),
		SyncBatchLimit:           batchLimit,
		SyncInterval:             syncInterval,

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SFTPHost:            getEnv("SFTP_HOST", ""),
		SFTPPort:            sftpPort,
		SFTPUser:            getEnv("SFTP_USER", ""),
		SFTPPassword:        getEnv("SFTP_PASSWORD", ""),
		SFTPBasePath:        getEnv("SFTP_BASE_PATH", ""),
		PublicUploadBaseURL: strings.TrimRight(getEnv("PUBLIC_UPLOAD_BASE_URL", ""), "/"),

		Port:        port,
		SecretToken: getEnv("SECRET_TOKEN", ""),
	}

	// Basic validation for essential variables
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required")
	}
	if cfg.SecretToken == "" {
		return nil, fmt.Errorf("SECRET_TOKEN is required")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}
	if cfg.SFTPHost == "" || cfg.PublicUploadBaseURL == "" {
		log.Println("Warning: SFTP mirror is not fully configured. Posts will keep Telegram CDN URLs.")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
