package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	genai "google.golang.org/genai"
)

const (
	ProviderGemini     = "gemini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

func NewGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	g := &GeminiClient{cli: cli, model: cfg.Model, temperature: cfg.Temperature, logger: cfg.Logger}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

func (g *GeminiClient) Name() string { return ProviderGemini + ":" + g.model }

func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	temp := g.temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temp)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	g.logger.Debug("gemini request", zap.String("model", model), zap.Int("prompt_bytes", len(req.Prompt)))

	resp, err := g.cli.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		g.logger.Warn("gemini request failed", zap.Error(err))
		return "", &GenerationError{Provider: ProviderGemini, Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Provider: ProviderGemini, Err: ErrEmptyResponse}
	}
	return text, nil
}
