package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is process-wide and immutable after Load.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// File storage
	StorageDir string

	// Server
	Port        string
	CORSOrigins string

	// Optional integrations
	AMQPURL   string
	SentryDSN string
	AppEnv    string

	// Seed admin (created at startup when the users table is empty)
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment, with a .env file as a
// development convenience. Missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "docmanager")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	viper.SetDefault("JWT_REFRESH_EXPIRY", "168h")
	viper.SetDefault("STORAGE_DIR", "./uploads")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ADMIN_USERNAME", "")
	viper.SetDefault("ADMIN_EMAIL", "")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.AutomaticEnv()

	return &Config{
		DBHost:     viper.GetString("DB_HOST"),
		DBPort:     viper.GetString("DB_PORT"),
		DBUser:     viper.GetString("DB_USER"),
		DBPassword: viper.GetString("DB_PASSWORD"),
		DBName:     viper.GetString("DB_NAME"),
		DBSSLMode:  viper.GetString("DB_SSLMODE"),

		JWTSecret:        viper.GetString("JWT_SECRET"),
		JWTAccessExpiry:  parseDuration(viper.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(viper.GetString("JWT_REFRESH_EXPIRY"), 168*time.Hour),

		StorageDir: viper.GetString("STORAGE_DIR"),

		Port:        viper.GetString("PORT"),
		CORSOrigins: viper.GetString("CORS_ORIGINS"),

		AMQPURL:   viper.GetString("AMQP_URL"),
		SentryDSN: viper.GetString("SENTRY_DSN"),
		AppEnv:    viper.GetString("APP_ENV"),

		AdminUsername: viper.GetString("ADMIN_USERNAME"),
		AdminEmail:    viper.GetString("ADMIN_EMAIL"),
		AdminPassword: viper.GetString("ADMIN_PASSWORD"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
