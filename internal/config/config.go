package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Database driver constants
const (
	SqliteDriver   = "sqlite"
	PostgresDriver = "postgres"
)

// LLM provider constants
const (
	ProviderLocal = "local"
	ProviderGroq  = "groq"
	ProviderAuto  = "auto"
)

// Config holds all runtime settings, sourced from environment variables.
type Config struct {
	HTTPAddr       string `validate:"required"`
	FrontendOrigin string

	DBDriver string `validate:"required,oneof=sqlite postgres"`
	DBDSN    string `validate:"required"`

	SessionSecret string `validate:"required"`

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	LLMProvider     string `validate:"required,oneof=local groq auto"`
	LocalLLMURL     string
	LocalLLMModel   string
	LocalLLMTimeout int

	GroqAPIURL  string
	GroqAPIKey  string
	GroqModel   string
	GroqTimeout int

	VisionBaseURL string
	VisionAPIKey  string
	VisionModel   string

	UploadDir string
}

// FromEnv builds a Config from environment variables with docker-compose
// friendly defaults, then validates it.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       ":8080",
		FrontendOrigin: "http://localhost:3000",

		DBDriver: SqliteDriver,
		DBDSN:    "lumen_transactions.db",

		SessionSecret: "",

		LLMProvider:     ProviderAuto,
		LocalLLMURL:     "http://localhost:1234/v1",
		LocalLLMModel:   "qwen2.5-coder-3b-instruct-mlx",
		LocalLLMTimeout: 30,

		GroqAPIURL:  "https://api.groq.com/openai/v1",
		GroqModel:   "llama-3.3-70b-versatile",
		GroqTimeout: 30,

		VisionBaseURL: "https://integrate.api.nvidia.com/v1",
		VisionModel:   "meta/llama-3.2-11b-vision-instruct",

		UploadDir: "uploads/receipts",
	}

	setIfPresent(&cfg.HTTPAddr, "HTTP_ADDR")
	setIfPresent(&cfg.FrontendOrigin, "FRONTEND_ORIGIN")
	setIfPresent(&cfg.DBDriver, "DB_DRIVER")
	setIfPresent(&cfg.DBDSN, "DB_DSN")
	setIfPresent(&cfg.SessionSecret, "SESSION_SECRET")
	setIfPresent(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	setIfPresent(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setIfPresent(&cfg.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	setIfPresent(&cfg.LLMProvider, "LLM_PROVIDER")
	setIfPresent(&cfg.LocalLLMURL, "LOCAL_LLM_URL")
	setIfPresent(&cfg.LocalLLMModel, "LOCAL_LLM_MODEL")
	setIntIfPresent(&cfg.LocalLLMTimeout, "LOCAL_LLM_TIMEOUT")
	setIfPresent(&cfg.GroqAPIURL, "GROQ_API_URL")
	setIfPresent(&cfg.GroqAPIKey, "GROQ_API_KEY")
	setIfPresent(&cfg.GroqModel, "GROQ_MODEL")
	setIntIfPresent(&cfg.GroqTimeout, "GROQ_TIMEOUT")
	setIfPresent(&cfg.VisionBaseURL, "NVIDIA_BASE_URL")
	setIfPresent(&cfg.VisionAPIKey, "NVIDIA_API_KEY")
	setIfPresent(&cfg.VisionModel, "NVIDIA_VISION_MODEL")
	setIfPresent(&cfg.UploadDir, "UPLOAD_DIR")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks all required fields and enum values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed for Config: %w", err)
	}
	return nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setIntIfPresent(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
