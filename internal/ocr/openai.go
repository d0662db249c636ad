package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI vision backend.
type OpenAIConfig struct {
	Model     string // default gpt-4o
	BaseURL   string // default https://api.openai.com/v1
	MaxTokens int    // default 4096
	Prompt    string // default DefaultPrompt
}

// OpenAIRecognizer reads images with OpenAI chat completions.
type OpenAIRecognizer struct {
	config     OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIRecognizer creates the OpenAI backend.
func NewOpenAIRecognizer(config OpenAIConfig, httpClient *http.Client) *OpenAIRecognizer {
	if config.Model == "" {
		config.Model = openai.GPT4o
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &OpenAIRecognizer{config: config, httpClient: httpClient}
}

// pdfFilename names the inline file part; the API requires one.
const pdfFilename = "page.pdf"

// Recognize implements Recognizer. Images go through go-openai as image_url
// parts; PDFs go as an inline "file" part, which go-openai cannot express.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, payload Payload, apiKey string) (string, error) {
	clientConfig := openai.DefaultConfig(apiKey)
	if r.config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(r.config.BaseURL, "/")
	}
	if payload.IsPDF() {
		return r.recognizePDF(ctx, clientConfig.BaseURL, payload, apiKey)
	}
	if r.httpClient != nil {
		clientConfig.HTTPClient = r.httpClient
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.config.Model,
		MaxTokens: r.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: r.config.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    payload.DataURL(),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type openAIFileRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
	Messages  []openAIFileMessage `json:"messages"`
}

type openAIFileMessage struct {
	Role    string           `json:"role"`
	Content []openAIFilePart `json:"content"`
}

type openAIFilePart struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	File *openAIFileData `json:"file,omitempty"`
}

type openAIFileData struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

func (r *OpenAIRecognizer) recognizePDF(ctx context.Context, baseURL string, payload Payload, apiKey string) (string, error) {
	req := openAIFileRequest{
		Model:     r.config.Model,
		MaxTokens: r.config.MaxTokens,
		Messages: []openAIFileMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: []openAIFilePart{
					{Type: "text", Text: r.config.Prompt},
					{Type: "file", File: &openAIFileData{Filename: pdfFilename, FileData: payload.DataURL()}},
				},
			},
		},
	}

	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	var resp openai.ChatCompletionResponse
	url := strings.TrimSuffix(baseURL, "/") + "/chat/completions"
	if err := postJSON(ctx, client, OpenAI, url, headers, req, &resp, openAIErrorMessage); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIErrorMessage(body []byte) string {
	var e openai.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == nil {
		return ""
	}
	return e.Error.Message
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: OpenAI, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: OpenAI, StatusCode: reqErr.HTTPStatusCode}
	}
	return &ProviderError{Provider: OpenAI, Message: err.Error()}
}
