package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-revision-engine/internal/domain"
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	UploadPath  string
	MaxFileSize int64
	LogLevel    string

	SessionCapacity int
	SessionTTL      time.Duration
	ExternalTimeout time.Duration

	OCREnabled  bool
	OCRLanguage string
	OCRDPI      float64

	GrammarAPIURL          string
	GrammarLanguage        string
	SpellingDictionaryPath string
	AlignmentStrategy      string

	SupabaseURL   string
	SupabaseKey   string
	ArchiveBucket string

	AllowedOrigins []string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// PaaS platforms provide the listening port via PORT.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		UploadPath:  getEnvOrDefault("UPLOAD_PATH", "./uploads"),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		SessionCapacity: getEnvIntOrDefault("SESSION_CAPACITY", 0),
		SessionTTL:      getEnvDurationOrDefault("SESSION_TTL", 0),
		ExternalTimeout: getEnvDurationOrDefault("EXTERNAL_TIMEOUT", 10*time.Second),

		OCREnabled:  getEnvBoolOrDefault("OCR_ENABLED", true),
		OCRLanguage: getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRDPI:      getEnvFloatOrDefault("OCR_DPI", 200),

		GrammarAPIURL:          getEnvOrDefault("GRAMMAR_API_URL", ""),
		GrammarLanguage:        getEnvOrDefault("GRAMMAR_LANGUAGE", "en-US"),
		SpellingDictionaryPath: getEnvOrDefault("SPELLING_DICTIONARY_PATH", ""),
		AlignmentStrategy:      getEnvOrDefault("ALIGNMENT_STRATEGY", "positional"),

		SupabaseURL:   getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:   getEnvOrDefault("SUPABASE_SERVICE_KEY", ""),
		ArchiveBucket: getEnvOrDefault("ARCHIVE_BUCKET", "revisions"),

		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetUploadPath returns the root directory for session files
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSessionCapacity returns the maximum number of live sessions; 0 is unbounded
func (c *AppConfig) GetSessionCapacity() int {
	return c.SessionCapacity
}

// GetSessionTTL returns the idle lifetime of a session; 0 disables expiry
func (c *AppConfig) GetSessionTTL() time.Duration {
	return c.SessionTTL
}

// GetExternalTimeout bounds OCR, grammar and archive calls
func (c *AppConfig) GetExternalTimeout() time.Duration {
	return c.ExternalTimeout
}

func (c *AppConfig) IsOCREnabled() bool {
	return c.OCREnabled
}

func (c *AppConfig) GetOCRLanguage() string {
	return c.OCRLanguage
}

func (c *AppConfig) GetOCRDPI() float64 {
	return c.OCRDPI
}

// GetGrammarAPIURL returns the LanguageTool-compatible endpoint; empty selects local rules
func (c *AppConfig) GetGrammarAPIURL() string {
	return c.GrammarAPIURL
}

func (c *AppConfig) GetGrammarLanguage() string {
	return c.GrammarLanguage
}

func (c *AppConfig) GetSpellingDictionaryPath() string {
	return c.SpellingDictionaryPath
}

func (c *AppConfig) GetAlignmentStrategy() string {
	return c.AlignmentStrategy
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetArchiveBucket returns the storage bucket for archived revisions
func (c *AppConfig) GetArchiveBucket() string {
	return c.ArchiveBucket
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("30s") or plain seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
