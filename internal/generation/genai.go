package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/goalplanner/internal/apperr"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// GenAIClient talks to Gemini through the official SDK. The SDK response is
// re-encoded as the same JSON envelope the REST endpoint returns, so the
// extractor works unchanged for both clients.
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyGenAIError(err)
	}
	if res == nil {
		return "", apperr.New(apperr.ErrUpstreamEmptyResponse, "no response from model")
	}

	envelope, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to encode genai response: %w", err)
	}

	slog.Debug("genai responded", "model", c.model, "candidates", len(res.Candidates))
	return string(envelope), nil
}

func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperr.Upstream(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apperr.Upstream(apiErrPtr.Code, apiErrPtr.Message)
	}
	return apperr.Wrap(apperr.ErrUpstreamUnavailable, err, "genai request failed")
}
