package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBDriver       string
	DBConn         string
	LogLevel       string
	JWTSecret      string
	EncryptionKey  string
	GeminiAPIKey   string
	GeminiURL      string
	GeminiModel    string
	InsightTimeout time.Duration
	SessionTTL     time.Duration
	RetentionDays  int
	PurgeSchedule  string
	RateLimitRPS   float64
	RateLimitBurst int
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SenderEmail    string
	CurrencySymbol string

	// Engine tuning
	ProjectionHorizon   int
	GoalInvestmentShare float64
	GoalDisplayCap      int
}

// fileConfig mirrors Config for the optional TOML file named by CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Port           string  `toml:"port"`
		LogLevel       string  `toml:"log_level"`
		RateLimitRPS   float64 `toml:"rate_limit_rps"`
		RateLimitBurst int     `toml:"rate_limit_burst"`
		CurrencySymbol string  `toml:"currency_symbol"`
	} `toml:"server"`
	Database struct {
		Driver        string `toml:"driver"`
		Conn          string `toml:"conn"`
		RetentionDays int    `toml:"retention_days"`
		PurgeSchedule string `toml:"purge_schedule"`
	} `toml:"database"`
	Insights struct {
		URL     string `toml:"url"`
		Model   string `toml:"model"`
		Timeout string `toml:"timeout"`
	} `toml:"insights"`
	Session struct {
		TTL string `toml:"ttl"`
	} `toml:"session"`
	SMTP struct {
		Host   string `toml:"host"`
		Port   int    `toml:"port"`
		Sender string `toml:"sender"`
	} `toml:"smtp"`
	Engine struct {
		ProjectionHorizon   int     `toml:"projection_horizon"`
		GoalInvestmentShare float64 `toml:"goal_investment_share"`
		GoalDisplayCap      int     `toml:"goal_display_cap"`
	} `toml:"engine"`
}

func defaults() *Config {
	return &Config{
		Port:                "8080",
		DBDriver:            "postgres",
		DBConn:              "host=localhost port=5436 user=test password=test dbname=balancify sslmode=disable",
		LogLevel:            "info",
		JWTSecret:           "secret",
		EncryptionKey:       "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6",
		GeminiURL:           "https://generativelanguage.googleapis.com",
		GeminiModel:         "gemini-2.5-flash",
		InsightTimeout:      20 * time.Second,
		SessionTTL:          24 * time.Hour,
		RetentionDays:       90,
		PurgeSchedule:       "@hourly",
		RateLimitRPS:        5,
		RateLimitBurst:      10,
		SMTPHost:            "smtp.gmail.com",
		SMTPPort:            587,
		SenderEmail:         "noreply@balancify.local",
		CurrencySymbol:      "₹",
		ProjectionHorizon:   60,
		GoalInvestmentShare: 0.3,
		GoalDisplayCap:      120,
	}
}

// NewConfig loads configuration from .env, the optional CONFIG_FILE and the
// environment, later sources overriding earlier ones.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	var err error
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBConn = getEnv("DB_CONN", cfg.DBConn)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.EncryptionKey = getEnv("ENCRYPTION_KEY", cfg.EncryptionKey)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiURL = getEnv("GEMINI_URL", cfg.GeminiURL)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.PurgeSchedule = getEnv("PURGE_SCHEDULE", cfg.PurgeSchedule)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SenderEmail = getEnv("SENDER_EMAIL", cfg.SenderEmail)
	cfg.CurrencySymbol = getEnv("CURRENCY_SYMBOL", cfg.CurrencySymbol)

	if cfg.InsightTimeout, err = getDuration("INSIGHT_TIMEOUT", cfg.InsightTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.RetentionDays, err = getInt("RETENTION_DAYS", cfg.RetentionDays); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", cfg.SMTPPort); err != nil {
		return nil, err
	}
	if cfg.ProjectionHorizon, err = getInt("PROJECTION_HORIZON", cfg.ProjectionHorizon); err != nil {
		return nil, err
	}
	if cfg.GoalInvestmentShare, err = getFloat("GOAL_INVESTMENT_SHARE", cfg.GoalInvestmentShare); err != nil {
		return nil, err
	}
	if cfg.GoalDisplayCap, err = getInt("GOAL_DISPLAY_CAP", cfg.GoalDisplayCap); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if key, err := hex.DecodeString(c.EncryptionKey); err != nil || len(key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters")
	}
	if c.ProjectionHorizon < 24 || c.ProjectionHorizon > 60 {
		return fmt.Errorf("PROJECTION_HORIZON must be between 24 and 60, got %d", c.ProjectionHorizon)
	}
	if c.GoalInvestmentShare < 0 || c.GoalInvestmentShare > 1 {
		return fmt.Errorf("GOAL_INVESTMENT_SHARE must be between 0 and 1, got %g", c.GoalInvestmentShare)
	}
	if c.GoalDisplayCap <= 0 {
		return fmt.Errorf("GOAL_DISPLAY_CAP must be positive")
	}
	if c.InsightTimeout <= 0 {
		return fmt.Errorf("INSIGHT_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.LogLevel, f.Server.LogLevel)
	setString(&c.CurrencySymbol, f.Server.CurrencySymbol)
	setString(&c.DBDriver, f.Database.Driver)
	setString(&c.DBConn, f.Database.Conn)
	setString(&c.PurgeSchedule, f.Database.PurgeSchedule)
	setString(&c.GeminiURL, f.Insights.URL)
	setString(&c.GeminiModel, f.Insights.Model)
	setString(&c.SMTPHost, f.SMTP.Host)
	setString(&c.SenderEmail, f.SMTP.Sender)
	setInt(&c.RateLimitBurst, f.Server.RateLimitBurst)
	setInt(&c.RetentionDays, f.Database.RetentionDays)
	setInt(&c.SMTPPort, f.SMTP.Port)
	setInt(&c.ProjectionHorizon, f.Engine.ProjectionHorizon)
	setInt(&c.GoalDisplayCap, f.Engine.GoalDisplayCap)
	if f.Server.RateLimitRPS > 0 {
		c.RateLimitRPS = f.Server.RateLimitRPS
	}
	if f.Engine.GoalInvestmentShare > 0 {
		c.GoalInvestmentShare = f.Engine.GoalInvestmentShare
	}
	if f.Insights.Timeout != "" {
		if c.InsightTimeout, err = time.ParseDuration(f.Insights.Timeout); err != nil {
			return fmt.Errorf("invalid insights.timeout: %w", err)
		}
	}
	if f.Session.TTL != "" {
		if c.SessionTTL, err = time.ParseDuration(f.Session.TTL); err != nil {
			return fmt.Errorf("invalid session.ttl: %w", err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
