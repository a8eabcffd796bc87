package gemini

import (
	"log/slog"
	"net/http"
	"time"
)

// Config controls the Gemini client. Timeout bounds a single attempt;
// the pipeline's retry policy multiplies attempts, not this timeout.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// Client talks to the Generative Language API's generateContent
// endpoint in JSON-response mode.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ModelName reports which provider configuration produced a record;
// it is persisted with each result summary.
func (c *Client) ModelName() string {
	return c.cfg.Model
}
