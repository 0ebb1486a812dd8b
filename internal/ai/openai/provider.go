// Package openai implements the AI provider against the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/utilityhub/utilityhub/pkg/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

const systemPrompt = "You are a data quality assistant. You receive a JSON profiling report " +
	"for a tabular dataset and explain it to a non-technical reader. Respond with a JSON object " +
	"containing exactly these keys: \"summary\" (string, plain-language overview of the dataset), " +
	"\"cleaningSteps\" (array of strings, recommended cleaning actions in priority order), and " +
	"\"risks\" (array of strings, data quality risks worth flagging)."

// Provider implements models.AIProvider using OpenAI.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewProvider(apiKey, model string, timeout time.Duration) *Provider {
	return &Provider{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "openai" }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *Provider) ExplainReport(ctx context.Context, report map[string]any) (models.ExplainResult, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return models.ExplainResult{}, fmt.Errorf("encoding report: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(reportJSON)},
		},
		ResponseFormat: &formatSpec{Type: "json_object"},
		Temperature:    0.2,
	})
	if err != nil {
		return models.ExplainResult{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.ExplainResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return models.ExplainResult{}, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.ExplainResult{}, fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.ExplainResult{}, fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return models.ExplainResult{}, fmt.Errorf("%w: %s (%s)", models.ErrProviderUnavailable, parsed.Error.Message, parsed.Error.Type)
		}
		return models.ExplainResult{}, fmt.Errorf("%w: status %d", models.ErrProviderUnavailable, resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return models.ExplainResult{}, fmt.Errorf("%w: no choices returned", models.ErrInvalidResponse)
	}

	var result models.ExplainResult
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		return models.ExplainResult{}, fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	if strings.TrimSpace(result.Summary) == "" {
		return models.ExplainResult{}, fmt.Errorf("%w: empty summary", models.ErrInvalidResponse)
	}

	return result, nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
}

var _ models.AIProvider = (*Provider)(nil)
