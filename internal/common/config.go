package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is built once at process start and
// passed down explicitly; nothing below cmd/ reads the environment.
type Config struct {
	DocIntel  DocIntelConfig  `yaml:"doc_intelligence"`
	LLM       LLMConfig       `yaml:"llm"`
	Vision    VisionConfig    `yaml:"vision"`
	Tools     ToolsConfig     `yaml:"tools"`
	Detection DetectionConfig `yaml:"detection"`
	Output    OutputConfig    `yaml:"output"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

// DocIntelConfig holds Azure Document Intelligence settings
type DocIntelConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	APIVersion   string        `yaml:"api_version"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LLMConfig holds chat-model settings for both classification and entity extraction
type LLMConfig struct {
	Provider     string        `yaml:"provider"` // azure | gemini
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	Deployment   string        `yaml:"deployment"`
	APIVersion   string        `yaml:"api_version"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
}

// VisionConfig holds the optional Azure Computer Vision OCR backend
type VisionConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// Enabled reports whether both endpoint and key are set.
func (v VisionConfig) Enabled() bool {
	return v.Endpoint != "" && v.APIKey != ""
}

// ToolsConfig names the poppler/tesseract binaries
type ToolsConfig struct {
	Pdftotext   string `yaml:"pdftotext"`
	Pdftoppm    string `yaml:"pdftoppm"`
	Pdfimages   string `yaml:"pdfimages"`
	Tesseract   string `yaml:"tesseract"`
	TessdataDir string `yaml:"tessdata_dir"`
	DPI         int    `yaml:"dpi"`
}

// DetectionConfig holds signature detection thresholds
type DetectionConfig struct {
	Threshold       float64       `yaml:"threshold"`
	Concurrency     int           `yaml:"concurrency"`
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	MinImageBytes   int           `yaml:"min_image_bytes"`
}

// OutputConfig holds where artifacts are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig holds the optional results database
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DocIntel: DocIntelConfig{
			APIVersion:   "2024-11-30",
			Timeout:      2 * time.Minute,
			PollInterval: time.Second,
		},
		LLM: LLMConfig{
			Provider:    "azure",
			APIVersion:  "2023-12-01-preview",
			Temperature: 0.1,
			Timeout:     60 * time.Second,
			GeminiModel: "gemini-1.5-flash",
		},
		Tools: ToolsConfig{
			Pdftotext: "pdftotext",
			Pdftoppm:  "pdftoppm",
			Pdfimages: "pdfimages",
			Tesseract: "tesseract",
			DPI:       200,
		},
		Detection: DetectionConfig{
			Threshold:   0.5,
			Concurrency: 1,
		},
		Output: OutputConfig{Dir: "output"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file "+path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DocIntel.Endpoint = getEnv("AZURE_DOC_INTELLIGENCE_ENDPOINT", c.DocIntel.Endpoint)
	c.DocIntel.APIKey = getEnv("AZURE_DOC_INTELLIGENCE_KEY", c.DocIntel.APIKey)
	c.DocIntel.APIVersion = getEnv("AZURE_DOC_INTELLIGENCE_API_VERSION", c.DocIntel.APIVersion)
	c.DocIntel.Timeout = getEnvAsDuration("AZURE_DOC_INTELLIGENCE_TIMEOUT", c.DocIntel.Timeout)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Endpoint = getEnv("AZURE_OPENAI_ENDPOINT", c.LLM.Endpoint)
	c.LLM.APIKey = getEnv("AZURE_OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Deployment = getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", c.LLM.Deployment)
	c.LLM.APIVersion = getEnv("AZURE_OPENAI_API_VERSION", c.LLM.APIVersion)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.LLM.GeminiAPIKey)
	c.LLM.GeminiModel = getEnv("GEMINI_MODEL", c.LLM.GeminiModel)

	c.Vision.Endpoint = getEnv("AZURE_VISION_ENDPOINT", c.Vision.Endpoint)
	c.Vision.APIKey = getEnv("AZURE_VISION_KEY", c.Vision.APIKey)

	c.Tools.Pdftotext = getEnv("PDFTOTEXT", c.Tools.Pdftotext)
	c.Tools.Pdftoppm = getEnv("PDFTOPPM", c.Tools.Pdftoppm)
	c.Tools.Pdfimages = getEnv("PDFIMAGES", c.Tools.Pdfimages)
	c.Tools.Tesseract = getEnv("TESSERACT", c.Tools.Tesseract)
	c.Tools.TessdataDir = getEnv("TESSDATA_PREFIX", c.Tools.TessdataDir)
	c.Tools.DPI = getEnvAsInt("RENDER_DPI", c.Tools.DPI)

	c.Detection.Threshold = getEnvAsFloat64("SIGNATURE_THRESHOLD", c.Detection.Threshold)
	c.Detection.Concurrency = getEnvAsInt("DETECT_CONCURRENCY", c.Detection.Concurrency)
	c.Detection.ClassifyTimeout = getEnvAsDuration("CLASSIFY_TIMEOUT", c.Detection.ClassifyTimeout)
	c.Detection.MinImageBytes = getEnvAsInt("MIN_IMAGE_BYTES", c.Detection.MinImageBytes)

	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)
	c.Store.DSN = getEnv("STORE_DSN", c.Store.DSN)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
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

// Validate checks that the credentials needed for the requested work are present.
// Entity extraction always needs the chat model; signature detection additionally
// needs Document Intelligence for the layout fallback.
func (c *Config) Validate(signatures bool) error {
	v := NewValidator()
	switch c.LLM.Provider {
	case "azure", "":
		v.Field("AZURE_OPENAI_API_KEY", c.LLM.APIKey, Required).
			Field("AZURE_OPENAI_ENDPOINT", c.LLM.Endpoint, Required, HTTPURL).
			Field("AZURE_OPENAI_DEPLOYMENT_NAME", c.LLM.Deployment, Required)
	case "gemini":
		v.Field("GEMINI_API_KEY", c.LLM.GeminiAPIKey, Required)
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM provider %q (want azure or gemini)", c.LLM.Provider), ErrConfiguration)
	}
	if signatures {
		v.Field("AZURE_DOC_INTELLIGENCE_KEY", c.DocIntel.APIKey, Required).
			Field("AZURE_DOC_INTELLIGENCE_ENDPOINT", c.DocIntel.Endpoint, Required, HTTPURL).
			Field("SIGNATURE_THRESHOLD", c.Detection.Threshold, UnitInterval)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", "missing or invalid settings: "+v.ErrorMessage(), ErrConfiguration)
	}
	return nil
}
