package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

const openaiBaseURL = "https://api.openai.com/v1/responses"

// OpenAIProvider calls the OpenAI Responses API.
type OpenAIProvider struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *http.Client
}

// Name identifies the provider in degraded-run messages.
func (p *OpenAIProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	Instructions    string `json:"instructions,omitempty"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

type openaiResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Explain asks the model for a short commentary on the forecast.
func (p *OpenAIProvider) Explain(ctx context.Context, forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) (string, error) {
	payload, err := json.Marshal(openaiRequest{
		Model:           p.model,
		Input:           buildPrompt(forecast, breakdown),
		Instructions:    systemPrompt,
		MaxOutputTokens: p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encoding request: %w", err)
	}

	url := p.baseURL
	if url == "" {
		url = openaiBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp.StatusCode); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("llm: reading response: %w", err)
	}

	var parsed openaiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: parsing response: %w", err)
	}
	if parsed.OutputText != "" {
		return parsed.OutputText, nil
	}

	var parts []string
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if (content.Type == "output_text" || content.Type == "text") && content.Text != "" {
				parts = append(parts, content.Text)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("llm: response contained no text")
	}
	return strings.Join(parts, "\n"), nil
}
