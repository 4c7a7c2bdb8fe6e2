package azure

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the Azure OpenAI chat/completions client.
type Config struct {
	Endpoint    string // https://<resource>.openai.azure.com
	APIKey      string
	Deployment  string // vision-capable deployment, e.g. gpt-4o
	APIVersion  string // default 2023-12-01-preview
	Temperature float32
	Timeout     time.Duration // http client timeout

	ClassifyMaxTokens int // default 1000
	EntityMaxTokens   int // default 3000
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-12-01-preview"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ClassifyMaxTokens <= 0 {
		cfg.ClassifyMaxTokens = 1000
	}
	if cfg.EntityMaxTokens <= 0 {
		cfg.EntityMaxTokens = 3000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
