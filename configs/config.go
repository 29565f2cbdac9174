package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	DefaultBookingIDPrefix = "SDR"
	DefaultAdminCopyEmail  = "bookings-admin@selfdrive.local"
	DefaultCompanyName     = "Self Drive Rentals"
)

var loadOnce sync.Once

func loadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

func Config(key string) string {
	loadEnv()
	return strings.TrimSpace(os.Getenv(key))
}

func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func ConfigInt(key string, fallback int) int {
	v, err := strconv.Atoi(Config(key))
	if err != nil {
		return fallback
	}
	return v
}

func ConfigBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(Config(key))
	if err != nil {
		return fallback
	}
	return v
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string

	DatabaseURL string
	JWTSecret   string

	BookingIDPrefix   string
	AdminCopyEmail    string
	CompanyName       string
	SupportEmail      string
	PublicSiteURL     string
	StrictTransitions bool

	NotifyWorkers   int
	NotifyQueueSize int
	PDFPoolSize     int
	PDFTimeoutSecs  int
	CloudinaryURL   string

	SettingsKey string

	RateLimitRPS   int
	RateLimitBurst int
}

func Load() AppConfig {
	return AppConfig{
		Name:    ConfigDefault("APP_NAME", "Self Drive Rentals"),
		Port:    ConfigDefault("PORT", "8080"),
		Debug:   ConfigBool("DEBUG", false),
		LogPath: ConfigDefault("LOG_PATH", "logs/"),

		DatabaseURL: Config("DATABASE_URL"),
		JWTSecret:   Config("JWT_SECRET"),

		BookingIDPrefix:   ConfigDefault("BOOKING_ID_PREFIX", DefaultBookingIDPrefix),
		AdminCopyEmail:    ConfigDefault("ADMIN_COPY_EMAIL", DefaultAdminCopyEmail),
		CompanyName:       ConfigDefault("COMPANY_NAME", DefaultCompanyName),
		SupportEmail:      Config("SUPPORT_EMAIL"),
		PublicSiteURL:     strings.TrimRight(Config("PUBLIC_SITE_URL"), "/"),
		StrictTransitions: ConfigBool("STRICT_STATUS_TRANSITIONS", false),

		NotifyWorkers:   ConfigInt("NOTIFY_WORKERS", 4),
		NotifyQueueSize: ConfigInt("NOTIFY_QUEUE_SIZE", 256),
		PDFPoolSize:     ConfigInt("PDF_POOL_SIZE", 2),
		PDFTimeoutSecs:  ConfigInt("PDF_TIMEOUT_SECONDS", 30),
		CloudinaryURL:   Config("CLOUDINARY_URL"),

		SettingsKey: Config("SETTINGS_ENCRYPTION_KEY"),

		RateLimitRPS:   ConfigInt("RATE_LIMIT_RPS", 2),
		RateLimitBurst: ConfigInt("RATE_LIMIT_BURST", 5),
	}
}
