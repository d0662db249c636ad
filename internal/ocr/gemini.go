package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// GeminiConfig configures the Gemini generateContent backend.
type GeminiConfig struct {
	Model   string // default gemini-1.5-flash
	BaseURL string // default https://generativelanguage.googleapis.com
	Prompt  string // default DefaultPrompt
}

// GeminiRecognizer reads images and PDFs with Gemini. Both use inline_data.
type GeminiRecognizer struct {
	config     GeminiConfig
	httpClient *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiRecognizer creates the Gemini backend.
func NewGeminiRecognizer(config GeminiConfig, httpClient *http.Client) *GeminiRecognizer {
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &GeminiRecognizer{config: config, httpClient: httpClient}
}

// Recognize implements Recognizer.
func (r *GeminiRecognizer) Recognize(ctx context.Context, payload Payload, apiKey string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: r.config.Prompt},
					{InlineData: &geminiInlineData{MimeType: payload.MimeType, Data: payload.Base64()}},
				},
			},
		},
	}

	url := strings.TrimSuffix(r.config.BaseURL, "/") + "/v1beta/models/" + r.config.Model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": apiKey}

	var resp geminiResponse
	if err := postJSON(ctx, r.httpClient, Gemini, url, headers, req, &resp, geminiErrorMessage); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", nil
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func geminiErrorMessage(body []byte) string {
	var e geminiErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
