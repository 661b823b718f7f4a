package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Extract ExtractConfig `yaml:"extract"`
	LLM     LLMConfig     `yaml:"llm"`
	Report  ReportConfig  `yaml:"report"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string `yaml:"http_addr" validate:"required"`
	GRPCAddr       string `yaml:"grpc_addr" validate:"required"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" validate:"gt=0"`
}

// ExtractConfig holds text-layer and page rendering configuration
type ExtractConfig struct {
	Pdftotext       string        `yaml:"pdftotext"`
	Pdftoppm        string        `yaml:"pdftoppm" validate:"required"`
	UsePdftotext    bool          `yaml:"use_pdftotext"`
	DPI             int           `yaml:"dpi" validate:"gte=72,lte=1200"`
	MaxImageDim     int           `yaml:"max_image_dim" validate:"gte=256"`
	TmpDir          string        `yaml:"tmp_dir"`
	HeicConverter   string        `yaml:"heic_converter" validate:"heicconverter"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxTextPerDocKB int           `yaml:"max_text_per_doc_kb" validate:"gt=0"`
}

// LLMConfig holds configuration for the structured-extraction capability
type LLMConfig struct {
	Provider          string        `yaml:"provider" validate:"oneof=openai gemini ollama"`
	Model             string        `yaml:"model" validate:"required"`
	APIKey            string        `yaml:"api_key" validate:"required_unless=Provider ollama"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Temperature       float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	Burst             int           `yaml:"burst" validate:"gte=1"`
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	ChromiumPath string        `yaml:"chromium_path"`
	PDFTimeout   time.Duration `yaml:"pdf_timeout" validate:"gt=0"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// DefaultConfig returns the configuration used when neither a file nor the environment set a value.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       ":8080",
			GRPCAddr:       ":9090",
			MaxUploadBytes: 20 << 20,
		},
		Extract: ExtractConfig{
			Pdftotext:       "pdftotext",
			Pdftoppm:        "pdftoppm",
			UsePdftotext:    true,
			DPI:             300,
			MaxImageDim:     2000,
			HeicConverter:   "magick",
			Timeout:         60 * time.Second,
			MaxTextPerDocKB: 64,
		},
		LLM: LLMConfig{
			Provider:          "gemini",
			Model:             "gemini-1.5-pro",
			Temperature:       0,
			Timeout:           90 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Report: ReportConfig{
			PDFTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// an optional .env file and finally the process environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ConfigurationError("load .env", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ConfigurationError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, ConfigurationError("parse config file", err)
		}
	}
	mergeWithEnv(cfg)
	return cfg, nil
}

func mergeWithEnv(c *Config) {
	c.Server.HTTPAddr = getEnv("POMATCH_HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("POMATCH_GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadBytes = getEnvAsInt64("POMATCH_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	c.Extract.Pdftotext = getEnv("EXTRACT_PDFTOTEXT", c.Extract.Pdftotext)
	c.Extract.Pdftoppm = getEnv("EXTRACT_PDFTOPPM", c.Extract.Pdftoppm)
	c.Extract.UsePdftotext = getEnvAsBool("EXTRACT_USE_PDFTOTEXT", c.Extract.UsePdftotext)
	c.Extract.DPI = getEnvAsInt("EXTRACT_DPI", c.Extract.DPI)
	c.Extract.MaxImageDim = getEnvAsInt("EXTRACT_MAX_IMAGE_DIM", c.Extract.MaxImageDim)
	c.Extract.TmpDir = getEnv("EXTRACT_TMP_DIR", c.Extract.TmpDir)
	c.Extract.HeicConverter = getEnv("EXTRACT_HEIC_CONVERTER", c.Extract.HeicConverter)
	c.Extract.MaxTextPerDocKB = getEnvAsInt("EXTRACT_MAX_TEXT_KB", c.Extract.MaxTextPerDocKB)
	c.Extract.Timeout = getEnvAsDuration("EXTRACT_TIMEOUT", c.Extract.Timeout)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.RequestsPerSecond = getEnvAsFloat64("LLM_RPS", c.LLM.RequestsPerSecond)
	c.LLM.Burst = getEnvAsInt("LLM_BURST", c.LLM.Burst)

	c.Report.ChromiumPath = getEnv("REPORT_CHROMIUM_PATH", c.Report.ChromiumPath)
	c.Report.PDFTimeout = getEnvAsDuration("REPORT_PDF_TIMEOUT", c.Report.PDFTimeout)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", c.Log.Format))
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	// converters may be configured by absolute path
	_ = v.RegisterValidation("heicconverter", func(fl validator.FieldLevel) bool {
		switch filepath.Base(fl.Field().String()) {
		case "heif-convert", "magick", "sips":
			return true
		}
		return false
	})
	return v
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ConfigurationError("validate config", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return ConfigurationError(strings.Join(msgs, "; "), nil)
}
