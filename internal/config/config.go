package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ProxyConfig holds the environment driven configuration for the relay.
type ProxyConfig struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"oblaka-proxy"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"3000"`
	BackendURL      string        `env:"BACKEND_URL" envDefault:"http://127.0.0.1:8000"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableMetrics   bool          `env:"ENABLE_METRICS" envDefault:"true"`
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"oblaka-chat"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ProxyURL       string        `env:"PROXY_URL" envDefault:"http://localhost:3000"`
	PrefsPath      string        `env:"PREFS_PATH"`
	ExportDir      string        `env:"EXPORT_DIR" envDefault:"."`
	HealthInterval time.Duration `env:"HEALTH_INTERVAL" envDefault:"30s"`
	ChatTimeout    time.Duration `env:"CHAT_TIMEOUT" envDefault:"30s"`
	ProbeTimeout   time.Duration `env:"PROBE_TIMEOUT" envDefault:"10s"`
}

// BackendConfig configures the reference upstream backend.
type BackendConfig struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"oblaka-backend"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"BACKEND_PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBackupKey string        `env:"OPENAI_API_KEY2"`
	OpenAIModel     string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	GeminiKey       string        `env:"GEMINI_API_KEY"`
	GeminiBackupKey string        `env:"GEMINI_API_KEY2"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	OllamaHost      string        `env:"OLLAMA_HOST"`
	OllamaModel     string        `env:"OLLAMA_MODEL" envDefault:"llama3:latest"`
	SystemPrompt    string        `env:"SYSTEM_PROMPT" envDefault:"You are a helpful AI assistant."`
}

// LoadProxy parses environment variables into ProxyConfig.
func LoadProxy() (*ProxyConfig, error) {
	cfg := &ProxyConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := validateURL("BACKEND_URL", cfg.BackendURL); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *ProxyConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadClient parses environment variables into ClientConfig.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := validateURL("PROXY_URL", cfg.ProxyURL); err != nil {
		return nil, err
	}
	if cfg.HealthInterval <= 0 || cfg.ChatTimeout <= 0 || cfg.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("HEALTH_INTERVAL, CHAT_TIMEOUT and PROBE_TIMEOUT must be positive")
	}
	return cfg, nil
}

// LoadBackend parses environment variables into BackendConfig.
func LoadBackend() (*BackendConfig, error) {
	cfg := &BackendConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.OllamaHost != "" {
		if err := validateURL("OLLAMA_HOST", cfg.OllamaHost); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *BackendConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadEnvFiles overlays .env files found in the working directory or its parent.
func LoadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

func validateURL(name, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}
