package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	ollamaModelsPath = "/api/tags"
	ollamaChatPath   = "/api/chat"
)

// OllamaClient talks to a local Ollama server. It is available whenever a
// host is configured; reachability is only discovered per request.
type OllamaClient struct {
	info         Info
	model        string
	systemPrompt string
	http         *resty.Client
	log          zerolog.Logger
}

type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *OllamaOptions  `json:"options,omitempty"`
}

type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type OllamaMessageResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         OllamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type OllamaError struct {
	Error string `json:"error"`
}

type ModelsResponse struct {
	Models []OllamaModel `json:"models"`
}

type OllamaModel struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

type Families []string

// ModelDetails represents the details of a model.
type ModelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          Families `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// NewOllamaClient returns an Ollama provider for host. An empty host leaves
// it unavailable.
func NewOllamaClient(info Info, host, model, systemPrompt string, log zerolog.Logger) *OllamaClient {
	c := &OllamaClient{
		info:         info,
		model:        model,
		systemPrompt: systemPrompt,
		log:          log.With().Str("provider", info.ID).Logger(),
	}
	if host != "" {
		c.http = resty.New().
			SetBaseURL(strings.TrimRight(host, "/")).
			SetHeader("Content-Type", "application/json")
	}
	return c
}

func (c *OllamaClient) Info() Info {
	return c.info
}

func (c *OllamaClient) Available() bool {
	return c.http != nil
}

// GetModels lists the models installed on the Ollama server.
func (c *OllamaClient) GetModels(ctx context.Context) ([]OllamaModel, error) {
	if c.http == nil {
		return nil, fmt.Errorf("ollama host is not configured")
	}

	var response ModelsResponse
	var errBody OllamaError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&response).
		SetError(&errBody).
		Get(ollamaModelsPath)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch data: %s", statusMessage(resp, errBody))
	}
	return response.Models, nil
}

func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if c.http == nil {
		return nil, fmt.Errorf("ollama host is not configured")
	}

	apiReq := OllamaChatRequest{
		Model: c.model,
		Messages: []OllamaMessage{
			{Role: RoleSystem, Content: c.systemPrompt},
			{Role: RoleUser, Content: req.Message},
		},
		Stream: false,
		Options: &OllamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	c.log.Info().Str("model", c.model).Int("max_tokens", req.MaxTokens).Msg("sending chat request")

	var apiResp OllamaMessageResponse
	var errBody OllamaError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(apiReq).
		SetResult(&apiResp).
		SetError(&errBody).
		Post(ollamaChatPath)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	if resp.IsError() {
		c.log.Error().Int("status", resp.StatusCode()).Str("error", errBody.Error).Msg("chat request rejected")
		return nil, fmt.Errorf("chat request failed: %s", statusMessage(resp, errBody))
	}
	if strings.TrimSpace(apiResp.Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	result := &ChatResult{
		Text:      apiResp.Message.Content,
		ModelUsed: c.info.Name,
	}
	if tokens := apiResp.PromptEvalCount + apiResp.EvalCount; tokens > 0 {
		result.TokensUsed = &tokens
	}
	return result, nil
}

func statusMessage(resp *resty.Response, errBody OllamaError) string {
	if errBody.Error != "" {
		return errBody.Error
	}
	return resp.Status()
}

// UnmarshalJSON treats a null family list as empty.
func (f *Families) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Families{}
		return nil
	}

	var families []string
	if err := json.Unmarshal(data, &families); err != nil {
		return err
	}
	*f = Families(families)
	return nil
}
