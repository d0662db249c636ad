package ocr

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"notecal/internal/logger"
)

// Options configures the vendor backends of a Gateway.
type Options struct {
	// HTTPClient is used by the plain HTTP providers (claude, gemini) and by go-openai.
	HTTPClient *http.Client

	OpenAI       OpenAIConfig
	Claude       ClaudeConfig
	Gemini       GeminiConfig
	GoogleVision GoogleVisionConfig
	DocumentAI   DocumentAIConfig
}

// Gateway dispatches recognition requests to the selected provider.
type Gateway struct {
	recognizers map[Provider]Recognizer
	log         zerolog.Logger
}

// NewGateway builds a gateway with every server-side provider registered.
func NewGateway(opts Options) *Gateway {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}

	g := &Gateway{
		recognizers: make(map[Provider]Recognizer),
		log:         logger.WithComponent("ocr-gateway"),
	}
	for _, p := range Providers() {
		switch p {
		case Tesseract:
			// client-side only, see Recognize
		case OpenAI:
			g.Register(p, NewOpenAIRecognizer(opts.OpenAI, httpClient))
		case Claude:
			g.Register(p, NewClaudeRecognizer(opts.Claude, httpClient))
		case Gemini:
			g.Register(p, NewGeminiRecognizer(opts.Gemini, httpClient))
		case GoogleVision:
			g.Register(p, NewGoogleVisionRecognizer(opts.GoogleVision))
		case DocumentAI:
			g.Register(p, NewDocumentAIRecognizer(opts.DocumentAI))
		default:
			panic(fmt.Sprintf("ocr: provider %s has no recognizer", p))
		}
	}
	return g
}

// Register installs or replaces the recognizer of a provider.
func (g *Gateway) Register(provider Provider, r Recognizer) {
	g.recognizers[provider] = r
}

// Preflight checks that provider can run server-side and that its credential
// is set, without sending anything. Callers use it to fail before fetching content.
func (g *Gateway) Preflight(ctx context.Context, provider Provider, creds CredentialSource) error {
	_, _, err := g.preflight(ctx, provider, creds)
	return err
}

func (g *Gateway) preflight(ctx context.Context, provider Provider, creds CredentialSource) (Recognizer, string, error) {
	const op = "Preflight"

	if provider == Tesseract {
		return nil, "", &ConfigurationError{Provider: provider, Reason: "tesseract runs on the client only, no server-side engine is available"}
	}
	rec, ok := g.recognizers[provider]
	if !ok {
		return nil, "", &ConfigurationError{Provider: provider, Reason: "provider is not supported"}
	}

	credential, err := creds.Credential(ctx, provider)
	if err != nil {
		return nil, "", WrapOCRError(op, err, fmt.Sprintf("failed to resolve %s credential", provider))
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, "", &ConfigurationError{Provider: provider, Setting: provider.CredentialKey(), Reason: "credential is missing"}
	}
	return rec, credential, nil
}

// Recognize runs OCR on payload with the given provider.
//
// Configuration problems (tesseract selected, unknown provider, missing
// credential) are reported before any network call. An empty vendor result
// is returned as "" without error.
func (g *Gateway) Recognize(ctx context.Context, provider Provider, payload Payload, creds CredentialSource) (string, error) {
	rec, credential, err := g.preflight(ctx, provider, creds)
	if err != nil {
		return "", err
	}

	if len(payload.Data) == 0 {
		return "", &FormatError{Reason: "empty payload"}
	}
	if len(payload.Data) > MaxPayloadBytes {
		return "", &FormatError{Reason: fmt.Sprintf("payload of %d bytes exceeds the %d byte limit", len(payload.Data), MaxPayloadBytes)}
	}
	if !payload.IsPDF() && !strings.HasPrefix(payload.MimeType, "image/") {
		return "", &FormatError{Reason: fmt.Sprintf("unsupported content type %q", payload.MimeType)}
	}

	g.log.Debug().
		Str("provider", provider.String()).
		Str("mime_type", payload.MimeType).
		Int("size", len(payload.Data)).
		Msg("Sending payload to OCR provider")

	start := time.Now()
	text, err := rec.Recognize(ctx, payload, credential)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("provider", provider.String()).
			Dur("duration", time.Since(start)).
			Msg("OCR provider failed")
		return "", err
	}

	text = strings.TrimSpace(text)
	g.log.Info().
		Str("provider", provider.String()).
		Int("text_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("OCR completed")

	return text, nil
}

// RecognizeDataURL decodes a data URL payload and runs Recognize.
func (g *Gateway) RecognizeDataURL(ctx context.Context, provider Provider, dataURL string, creds CredentialSource) (string, error) {
	payload, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return g.Recognize(ctx, provider, payload, creds)
}
