package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Bank       BankConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Merge      MergeConfig
}

// DatabaseConfig holds database-related configuration. When DSN is empty the
// embedded SQLite store at SQLitePath is used instead of Postgres.
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Workers        int
	QueueSize      int
}

// OCRConfig holds binary-to-text configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	MinTextChars  int
	Timeout       time.Duration
}

// LLMConfig holds drafting capability configuration
type LLMConfig struct {
	Enabled     bool
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxChars    int
}

// BankConfig holds IBAN lookup configuration
type BankConfig struct {
	Enabled    bool
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Retries    int
}

// CacheConfig holds Redis cache configuration. An empty Addr selects the
// in-process cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// StorageConfig holds the working directories for documents and output JSON.
type StorageConfig struct {
	ListingDir  string
	ProposalDir string
	OutputDir   string
}

// ExtractionConfig points at the optional YAML tuning file.
type ExtractionConfig struct {
	TuningFile string
}

// MergeConfig holds the constants used by derived merged fields.
type MergeConfig struct {
	BidIncrement           float64
	PublicationCutoff      string
	TimeZone               string
	IncludeCharacteristics bool
}

// LoadDotEnv loads a .env file if present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return WrapError(err, "load "+p)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "./astadocs.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 180*time.Second),
			Workers:        getEnvAsInt("JOB_WORKERS", 2),
			QueueSize:      getEnvAsInt("JOB_QUEUE_SIZE", 64),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "ita"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 20),
			MinTextChars:  getEnvAsInt("OCR_MIN_TEXT_CHARS", 40),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			Enabled:     getEnvAsBool("LLM_ENABLED", false),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
			MaxChars:    getEnvAsInt("LLM_MAX_CHARS", 120000),
		},
		Bank: BankConfig{
			Enabled:    getEnvAsBool("BANK_LOOKUP_ENABLED", true),
			BaseURL:    getEnv("BANK_LOOKUP_URL", "https://openiban.com"),
			Timeout:    getEnvAsDuration("BANK_LOOKUP_TIMEOUT", 5*time.Second),
			RatePerSec: float64(getEnvAsFloat32("BANK_LOOKUP_RATE", 2)),
			Burst:      getEnvAsInt("BANK_LOOKUP_BURST", 4),
			Retries:    getEnvAsInt("BANK_LOOKUP_RETRIES", 3),
		},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "astadocs:"),
			TTL:      getEnvAsDuration("CACHE_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			ListingDir:  getEnv("LISTING_DIR", "./pdf/annunci"),
			ProposalDir: getEnv("PROPOSAL_DIR", "./pdf/proposte"),
			OutputDir:   getEnv("OUTPUT_DIR", "./out"),
		},
		Extraction: ExtractionConfig{
			TuningFile: getEnv("EXTRACTION_TUNING_FILE", ""),
		},
		Merge: MergeConfig{
			BidIncrement:           float64(getEnvAsFloat32("MERGE_BID_INCREMENT", 1000)),
			PublicationCutoff:      getEnv("MERGE_PUBLICATION_CUTOFF", "15:30"),
			TimeZone:               getEnv("MERGE_TIMEZONE", "Europe/Rome"),
			IncludeCharacteristics: getEnvAsBool("MERGE_CHARACTERISTICS", true),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Misconfigured capabilities
// are fatal before any document is processed.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required when LLM_ENABLED is set", ErrInvalidInput)
	}
	if c.Bank.Enabled && c.Bank.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "BANK_LOOKUP_URL is required when BANK_LOOKUP_ENABLED is set", ErrInvalidInput)
	}
	if _, err := time.Parse("15:04", c.Merge.PublicationCutoff); err != nil {
		return NewAppError("CONFIG_ERROR", "MERGE_PUBLICATION_CUTOFF must be HH:MM", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(c.Merge.TimeZone); err != nil {
		return NewAppError("CONFIG_ERROR", "MERGE_TIMEZONE is not a known time zone", err)
	}
	if c.Merge.BidIncrement < 0 {
		return NewAppError("CONFIG_ERROR", "MERGE_BID_INCREMENT must not be negative", ErrInvalidInput)
	}
	return nil
}
