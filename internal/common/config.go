package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Mail    MailConfig
	LLM     LLMConfig
	Catalog CatalogConfig
	Invoice InvoiceConfig
	Poll    PollConfig
}

// MailConfig holds inbox and outbound mail configuration
type MailConfig struct {
	IMAPAddr      string
	SMTPHost      string
	SMTPPort      int
	Username      string
	Password      string
	SearchHeader  string
	SearchValue   string
	SenderDisplay string
}

// LLMConfig holds chat-completion client configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// CatalogConfig holds the product/price table source
type CatalogConfig struct {
	Path        string
	NameColumn  string
	PriceColumn string
}

// InvoiceConfig holds renderer and reconciliation policy settings
type InvoiceConfig struct {
	OutputPath       string
	LogoPath         string
	DefaultUnitPrice string
	StrictMatching   bool
}

// PollConfig holds the daemon loop settings
type PollConfig struct {
	Interval    time.Duration
	MaxPerCycle int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Mail: MailConfig{
			IMAPAddr:      getEnv("IMAP_ADDR", "imap.gmail.com:993"),
			SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			Username:      getEnv("EMAIL_USER", ""),
			Password:      getEnv("EMAIL_PASSWORD", ""),
			SearchHeader:  getEnv("SEARCH_HEADER", "Subject"),
			SearchValue:   getEnv("SEARCH_VALUE", "orden de pedido"),
			SenderDisplay: getEnv("SENDER_DISPLAY", "SAMLA"),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Catalog: CatalogConfig{
			Path:        getEnv("CATALOG_PATH", "products.csv"),
			NameColumn:  getEnv("CATALOG_NAME_COLUMN", "Nombre"),
			PriceColumn: getEnv("CATALOG_PRICE_COLUMN", "Costo"),
		},
		Invoice: InvoiceConfig{
			OutputPath:       getEnv("INVOICE_OUTPUT", "invoice.pdf"),
			LogoPath:         getEnv("INVOICE_LOGO", ""),
			DefaultUnitPrice: getEnv("DEFAULT_UNIT_PRICE", "1.00"),
			StrictMatching:   getEnvAsBool("STRICT_MATCHING", false),
		},
		Poll: PollConfig{
			Interval:    getEnvAsDuration("CHECK_INTERVAL", 180*time.Second),
			MaxPerCycle: getEnvAsInt("MAX_PER_CYCLE", 1),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Mail.Username == "" {
		return NewAppError("CONFIG_ERROR", "EMAIL_USER is required", ErrInvalidInput)
	}
	if c.Mail.Password == "" {
		return NewAppError("CONFIG_ERROR", "EMAIL_PASSWORD is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Catalog.Path == "" {
		return NewAppError("CONFIG_ERROR", "CATALOG_PATH is required", ErrInvalidInput)
	}
	if c.Poll.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "CHECK_INTERVAL must be positive", ErrInvalidInput)
	}
	return nil
}
