package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mailcadence/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
}

// MailboxConfig is the anonymous-tenant mailbox: the credentials used for
// owners that have no Mailbox row of their own. Historically these lived in
// scattered env reads at the call sites; here they are one explicit config
// section injected at startup.
type MailboxConfig struct {
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"`
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
	IMAPUsername string `json:"imap_username"`
	IMAPPassword string `json:"-"`
	IMAPMailbox  string `json:"imap_mailbox"`
}

// Configured reports whether the anonymous-tenant mailbox can send at all.
func (m MailboxConfig) Configured() bool {
	return m.SMTPHost != "" && m.FromEmail != ""
}

type SchedulerConfig struct {
	BatchLimit        int           `json:"batch_limit"`
	TickInterval      time.Duration `json:"tick_interval"`
	SendTimeout       time.Duration `json:"send_timeout"`
	StaleClaimAfter   time.Duration `json:"stale_claim_after"`
	InboundInterval   time.Duration `json:"inbound_interval"`
	InboundFetchLimit int           `json:"inbound_fetch_limit"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	JWTSecret string `json:"-"`
	SentryDSN string `json:"-"`

	Google         OAuthConfig     `json:"google"`
	Redis          RedisConfig     `json:"redis"`
	DefaultMailbox MailboxConfig   `json:"default_mailbox"`
	Scheduler      SchedulerConfig `json:"scheduler"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "mailcadence"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		JWTSecret: getEnv("JWT_SECRET", ""),
		SentryDSN: getEnv("SENTRY_DSN", ""),

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DefaultMailbox: MailboxConfig{
			FromEmail:    getEnv("MAILBOX_FROM_EMAIL", ""),
			FromName:     getEnv("MAILBOX_FROM_NAME", ""),
			SMTPHost:     getEnv("MAILBOX_SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("MAILBOX_SMTP_PORT", 587),
			SMTPUsername: getEnv("MAILBOX_SMTP_USERNAME", ""),
			SMTPPassword: getEnv("MAILBOX_SMTP_PASSWORD", ""),
			IMAPHost:     getEnv("MAILBOX_IMAP_HOST", ""),
			IMAPPort:     getEnvAsInt("MAILBOX_IMAP_PORT", 993),
			IMAPUsername: getEnv("MAILBOX_IMAP_USERNAME", ""),
			IMAPPassword: getEnv("MAILBOX_IMAP_PASSWORD", ""),
			IMAPMailbox:  getEnv("MAILBOX_IMAP_MAILBOX", "INBOX"),
		},
		Scheduler: SchedulerConfig{
			BatchLimit:        getEnvAsInt("SCHEDULER_BATCH_LIMIT", 50),
			TickInterval:      time.Duration(getEnvAsInt("SCHEDULER_TICK_SECONDS", 60)) * time.Second,
			SendTimeout:       time.Duration(getEnvAsInt("SCHEDULER_SEND_TIMEOUT_SECONDS", 30)) * time.Second,
			StaleClaimAfter:   time.Duration(getEnvAsInt("SCHEDULER_STALE_CLAIM_MINUTES", 15)) * time.Minute,
			InboundInterval:   time.Duration(getEnvAsInt("INBOUND_SYNC_SECONDS", 300)) * time.Second,
			InboundFetchLimit: getEnvAsInt("INBOUND_FETCH_LIMIT", 50),
		},
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.Environment == "production" && AppConfig.SentryDSN == "" {
		log.Println("⚠️ SENTRY_DSN not set; error reporting disabled in production")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := models.Migrate(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Redis enabled: %t, default mailbox: %t, Google OAuth: %t",
		AppConfig.Redis.Enabled,
		AppConfig.DefaultMailbox.Configured(),
		AppConfig.Google.ClientID != "")
}
