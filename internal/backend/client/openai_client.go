package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const backupSuffix = " (backup)"

// OpenAIConfig configures an OpenAI-compatible provider. Gemini is served
// through Google's OpenAI-compatible endpoint with the same client.
type OpenAIConfig struct {
	Info         Info
	APIKey       string
	BackupAPIKey string
	Model        string
	BaseURL      string
	SystemPrompt string
	HTTPClient   *http.Client
}

// OpenAIClient completes prompts against an OpenAI-compatible API. When the
// primary key fails, the backup key is tried once.
type OpenAIClient struct {
	info         Info
	model        string
	systemPrompt string
	primary      *openai.Client
	backup       *openai.Client
	log          zerolog.Logger
}

// NewOpenAIClient returns a provider that is unavailable when no API key
// is configured.
func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger) *OpenAIClient {
	return &OpenAIClient{
		info:         cfg.Info,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		primary:      newOpenAI(cfg, cfg.APIKey),
		backup:       newOpenAI(cfg, cfg.BackupAPIKey),
		log:          log.With().Str("provider", cfg.Info.ID).Logger(),
	}
}

func newOpenAI(cfg OpenAIConfig, key string) *openai.Client {
	if key == "" {
		return nil
	}
	config := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}
	return openai.NewClientWithConfig(config)
}

func (c *OpenAIClient) Info() Info {
	return c.info
}

func (c *OpenAIClient) Available() bool {
	return c.primary != nil
}

// HasBackup reports whether a backup key is configured.
func (c *OpenAIClient) HasBackup() bool {
	return c.backup != nil
}

func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if c.primary == nil {
		return nil, fmt.Errorf("%s API key is not configured", c.info.Label)
	}

	c.log.Info().Int("max_tokens", req.MaxTokens).Float64("temperature", req.Temperature).Msg("sending completion request")
	result, err := c.complete(ctx, c.primary, req)
	if err == nil {
		return result, nil
	}
	c.log.Error().Err(err).Msg("completion failed")

	if c.backup != nil {
		c.log.Info().Msg("retrying with backup key")
		backupResult, backupErr := c.complete(ctx, c.backup, req)
		if backupErr == nil {
			backupResult.ModelUsed += backupSuffix
			return backupResult, nil
		}
		c.log.Error().Err(backupErr).Msg("backup completion failed")
	}
	return nil, err
}

func (c *OpenAIClient) complete(ctx context.Context, api *openai.Client, req *ChatRequest) (*ChatResult, error) {
	resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: RoleSystem, Content: c.systemPrompt},
			{Role: RoleUser, Content: req.Message},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	result := &ChatResult{
		Text:      resp.Choices[0].Message.Content,
		ModelUsed: c.info.Name,
	}
	if resp.Usage.TotalTokens > 0 {
		tokens := resp.Usage.TotalTokens
		result.TokensUsed = &tokens
	}
	return result, nil
}
