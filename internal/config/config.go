package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Redis     RedisConfig
	Mail      MailConfig
	Upload    UploadConfig
	Audit     AuditConfig
	Inventory InventoryConfig
	Recovery  RecoveryConfig
	Admin     AdminSeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql | postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// RedisConfig holds redis configuration. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MailConfig holds SMTP configuration. An empty Host logs mails instead of sending them.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// UploadConfig holds image upload configuration
type UploadConfig struct {
	Dir           string
	MaxFileBytes  int64
	MaxFiles      int
	PublicBaseURL string
}

// AuditConfig holds audit recorder configuration
type AuditConfig struct {
	BufferSize int
	MaxRetries int
}

// InventoryConfig holds vaccine stock policies
type InventoryConfig struct {
	RestoreStockOnHistoryDelete bool
	LowStockThreshold           int
}

// RecoveryConfig holds password recovery configuration
type RecoveryConfig struct {
	CodeMinutes int
}

// AdminSeedConfig holds the bootstrap administrator account
type AdminSeedConfig struct {
	NationalID string
	Password   string
	Email      string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database := loadDatabaseConfig(appMode)
	if database.Driver != "mysql" && database.Driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", database.Driver)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "4000"),
		Database:  database,
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		Redis:     loadRedisConfig(),
		Mail:      loadMailConfig(),
		Upload:    loadUploadConfig(),
		Audit:     loadAuditConfig(),
		Inventory: loadInventoryConfig(),
		Recovery: RecoveryConfig{
			CodeMinutes: getEnvInt("RECOVERY_CODE_MINUTES", 15),
		},
		Admin: AdminSeedConfig{
			NationalID: getEnv("ADMIN_DNI", ""),
			Password:   getEnv("ADMIN_PASSWORD", ""),
			Email:      getEnv("ADMIN_EMAIL", "admin@hospital.local"),
		},
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, database.Driver)
	return config, nil
}

// modePrefix returns the env prefix for mode specific keys
func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "sistema_vacunacion"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 480),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func loadMailConfig() MailConfig {
	user := getEnv("MAIL_USER", "")
	return MailConfig{
		Host:     getEnv("MAIL_HOST", ""),
		Port:     getEnvInt("MAIL_PORT", 587),
		User:     user,
		Password: getEnv("MAIL_PASS", ""),
		From:     getEnv("MAIL_FROM", user),
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		Dir:           getEnv("UPLOAD_DIR", "./public"),
		MaxFileBytes:  int64(getEnvInt("UPLOAD_MAX_MB", 5)) * 1024 * 1024,
		MaxFiles:      getEnvInt("UPLOAD_MAX_FILES", 10),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		BufferSize: getEnvInt("AUDIT_BUFFER", 256),
		MaxRetries: getEnvInt("AUDIT_MAX_RETRIES", 3),
	}
}

func loadInventoryConfig() InventoryConfig {
	restore, _ := strconv.ParseBool(getEnv("RESTORE_STOCK_ON_HISTORY_DELETE", "false"))
	return InventoryConfig{
		RestoreStockOnHistoryDelete: restore,
		LowStockThreshold:           getEnvInt("LOW_STOCK_THRESHOLD", 10),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return origins
}
