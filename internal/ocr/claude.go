package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ClaudeConfig configures the Anthropic messages backend.
type ClaudeConfig struct {
	Model      string // default claude-3-5-sonnet-latest
	BaseURL    string // default https://api.anthropic.com
	APIVersion string // anthropic-version header, default 2023-06-01
	MaxTokens  int    // default 4096
	Prompt     string // default DefaultPrompt
}

// ClaudeRecognizer reads images and PDFs with the Anthropic messages API.
type ClaudeRecognizer struct {
	config     ClaudeConfig
	httpClient *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClaudeRecognizer creates the Anthropic backend.
func NewClaudeRecognizer(config ClaudeConfig, httpClient *http.Client) *ClaudeRecognizer {
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}
	if config.APIVersion == "" {
		config.APIVersion = "2023-06-01"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &ClaudeRecognizer{config: config, httpClient: httpClient}
}

// Recognize implements Recognizer. PDFs go in a "document" block, images in an "image" block.
func (r *ClaudeRecognizer) Recognize(ctx context.Context, payload Payload, apiKey string) (string, error) {
	blockType := "image"
	if payload.IsPDF() {
		blockType = "document"
	}

	req := claudeRequest{
		Model:     r.config.Model,
		MaxTokens: r.config.MaxTokens,
		Messages: []claudeMessage{
			{
				Role: "user",
				Content: []claudeBlock{
					{
						Type: blockType,
						Source: &claudeSource{
							Type:      "base64",
							MediaType: payload.MimeType,
							Data:      payload.Base64(),
						},
					},
					{Type: "text", Text: r.config.Prompt},
				},
			},
		},
	}

	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": r.config.APIVersion,
	}

	var resp claudeResponse
	url := strings.TrimSuffix(r.config.BaseURL, "/") + "/v1/messages"
	if err := postJSON(ctx, r.httpClient, Claude, url, headers, req, &resp, claudeErrorMessage); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(block.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func claudeErrorMessage(body []byte) string {
	var e claudeErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
