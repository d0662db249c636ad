package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
)

func TestOpenAIRecognizer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":" Dentist at 3 \n"}}]}`)
	}))
	defer srv.Close()

	r := NewOpenAIRecognizer(OpenAIConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"}, srv.Client())
	text, err := r.Recognize(context.Background(), NewPayload(pngHeader), "sk-test")

	require.NoError(t, err)
	assert.Equal(t, "Dentist at 3", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestOpenAIRecognizerVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	r := NewOpenAIRecognizer(OpenAIConfig{BaseURL: srv.URL}, srv.Client())
	_, err := r.Recognize(context.Background(), NewPayload(pngHeader), "sk-bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestOpenAIRecognizerPDFFilePart(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
				File struct {
					Filename string `json:"filename"`
					FileData string `json:"file_data"`
				} `json:"file"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Gym at 7\n"}}]}`)
	}))
	defer srv.Close()

	pdf := NewPayload([]byte("%PDF-1.7 body"))
	r := NewOpenAIRecognizer(OpenAIConfig{BaseURL: srv.URL + "/"}, srv.Client())
	text, err := r.Recognize(context.Background(), pdf, "sk-test")

	require.NoError(t, err)
	assert.Equal(t, "Gym at 7", text)
	assert.Equal(t, "gpt-4o", body.Model)
	require.Len(t, body.Messages, 1)
	require.Len(t, body.Messages[0].Content, 2)
	assert.Equal(t, "text", body.Messages[0].Content[0].Type)
	part := body.Messages[0].Content[1]
	assert.Equal(t, "file", part.Type)
	assert.Equal(t, "page.pdf", part.File.Filename)
	assert.Equal(t, pdf.DataURL(), part.File.FileData)
	assert.True(t, strings.HasPrefix(part.File.FileData, "data:application/pdf;base64,"))
}

func TestOpenAIRecognizerPDFVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid file data","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	r := NewOpenAIRecognizer(OpenAIConfig{BaseURL: srv.URL}, srv.Client())
	_, err := r.Recognize(context.Background(), NewPayload([]byte("%PDF-1.7")), "sk-test")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, OpenAI, pe.Provider)
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Equal(t, "Invalid file data", pe.Message)
}

func TestClaudeRecognizer(t *testing.T) {
	var req claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"Lunch at 12"},{"type":"text","text":"Gym 6pm"}]}`)
	}))
	defer srv.Close()

	r := NewClaudeRecognizer(ClaudeConfig{BaseURL: srv.URL}, srv.Client())
	text, err := r.Recognize(context.Background(), NewPayload([]byte("%PDF-1.7 body")), "key")

	require.NoError(t, err)
	assert.Equal(t, "Lunch at 12\nGym 6pm", text)
	require.Len(t, req.Messages, 1)
	block := req.Messages[0].Content[0]
	assert.Equal(t, "document", block.Type)
	assert.Equal(t, "application/pdf", block.Source.MediaType)
}

func TestClaudeRecognizerVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer srv.Close()

	r := NewClaudeRecognizer(ClaudeConfig{BaseURL: srv.URL}, srv.Client())
	_, err := r.Recognize(context.Background(), NewPayload(pngHeader), "key")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, Claude, provErr.Provider)
	assert.Equal(t, 529, provErr.StatusCode)
	assert.Equal(t, "Overloaded", provErr.Message)
}

func TestGeminiRecognizer(t *testing.T) {
	var req geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Call mom\n"},{"text":"at 5pm"}]}}]}`)
	}))
	defer srv.Close()

	r := NewGeminiRecognizer(GeminiConfig{BaseURL: srv.URL}, srv.Client())
	text, err := r.Recognize(context.Background(), NewPayload(pngHeader), "key")

	require.NoError(t, err)
	assert.Equal(t, "Call mom\nat 5pm", text)
	require.Len(t, req.Contents, 1)
	require.Len(t, req.Contents[0].Parts, 2)
	assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MimeType)
}

func TestGeminiRecognizerVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	r := NewGeminiRecognizer(GeminiConfig{BaseURL: srv.URL}, srv.Client())
	_, err := r.Recognize(context.Background(), NewPayload(pngHeader), "key")

	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiRecognizerNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	r := NewGeminiRecognizer(GeminiConfig{BaseURL: srv.URL}, srv.Client())
	text, err := r.Recognize(context.Background(), NewPayload(pngHeader), "key")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestVisionImageText(t *testing.T) {
	resp := &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{FullTextAnnotation: &visionpb.TextAnnotation{Text: "Dentist at 3\n"}},
		},
	}
	text, err := visionImageText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Dentist at 3", text)

	resp.Responses[0].Error = &statuspb.Status{Code: 3, Message: "Bad image data."}
	_, err = visionImageText(resp)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "Bad image data.")

	text, err = visionImageText(&visionpb.BatchAnnotateImagesResponse{})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestVisionFileTextJoinsPages(t *testing.T) {
	resp := &visionpb.BatchAnnotateFilesResponse{
		Responses: []*visionpb.AnnotateFileResponse{
			{
				Responses: []*visionpb.AnnotateImageResponse{
					{FullTextAnnotation: &visionpb.TextAnnotation{Text: "Page one"}},
					{},
					{FullTextAnnotation: &visionpb.TextAnnotation{Text: "Page three\n"}},
				},
			},
		},
	}

	text, err := visionFileText(resp)

	require.NoError(t, err)
	assert.Equal(t, "Page one\nPage three", text)
}

func TestProcessorLocation(t *testing.T) {
	loc, err := processorLocation("projects/p1/locations/eu/processors/abc123")
	require.NoError(t, err)
	assert.Equal(t, "eu", loc)

	loc, err = processorLocation("projects/p1/locations/us/processors/abc/processorVersions/v2")
	require.NoError(t, err)
	assert.Equal(t, "us", loc)

	_, err = processorLocation("abc123")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDocumentAIClientOptions(t *testing.T) {
	r := NewDocumentAIRecognizer(DocumentAIConfig{})
	assert.Len(t, r.clientOptions("us"), 0)
	assert.Len(t, r.clientOptions("eu"), 1)

	r = NewDocumentAIRecognizer(DocumentAIConfig{Endpoint: "localhost:9000", CredentialsFile: "sa.json"})
	assert.Len(t, r.clientOptions("eu"), 2)
}
