// Package ocr is a gateway over several vision backends that read handwriting.
//
// Every provider receives the same Payload (an image or a PDF) and returns plain,
// trimmed text. Vendor specific request bodies, response envelopes and error
// shapes stay inside this package:
//
//   - openai:        chat completions with an image_url part (go-openai)
//   - claude:        Anthropic messages API with an image or document block
//   - gemini:        generateContent with inline_data
//   - google_vision: Cloud Vision DOCUMENT_TEXT_DETECTION (REST client, API key)
//   - document_ai:   Document AI OCR processor
//   - tesseract:     client-side only; always a configuration error here
//
// Errors fall into three classes: ErrConfiguration (nothing was sent),
// ErrFormat (the payload was rejected locally) and ErrProvider (the vendor failed).
package ocr

import (
	"context"
	"fmt"
	"strings"
)

// MaxPayloadBytes is the largest payload sent to any provider (20MB).
const MaxPayloadBytes = 20 * 1024 * 1024

// DefaultPrompt instructs LLM based providers to transcribe instead of describe.
const DefaultPrompt = "Transcribe all handwritten and printed text on this page exactly as written. " +
	"Keep one line of output per written line. Return only the transcription, without commentary."

// Provider identifies an OCR backend.
type Provider int

const (
	ProviderUnknown Provider = iota
	Tesseract
	OpenAI
	Claude
	Gemini
	GoogleVision
	DocumentAI
)

var providerNames = map[Provider]string{
	Tesseract:    "tesseract",
	OpenAI:       "openai",
	Claude:       "claude",
	Gemini:       "gemini",
	GoogleVision: "google_vision",
	DocumentAI:   "document_ai",
}

// Providers lists every known provider.
func Providers() []Provider {
	return []Provider{Tesseract, OpenAI, Claude, Gemini, GoogleVision, DocumentAI}
}

// String returns the settings name of the provider.
func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	if p == ProviderUnknown {
		return "ocr provider"
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// CredentialKey is the settings key holding the provider's credential.
func (p Provider) CredentialKey() string {
	switch p {
	case OpenAI:
		return "openai_api_key"
	case Claude:
		return "anthropic_api_key"
	case Gemini:
		return "gemini_api_key"
	case GoogleVision:
		return "google_vision_api_key"
	case DocumentAI:
		return "document_ai_processor"
	default:
		return ""
	}
}

// ParseProvider resolves a settings value into a Provider.
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProviderUnknown, &ConfigurationError{Provider: ProviderUnknown, Setting: "provider", Reason: "no OCR provider selected"}
	}
	for p, n := range providerNames {
		if n == name {
			return p, nil
		}
	}
	return ProviderUnknown, &ConfigurationError{Provider: ProviderUnknown, Setting: "provider", Reason: fmt.Sprintf("unknown provider %q", name)}
}

// Recognizer is one vendor backend.
type Recognizer interface {
	// Recognize sends the payload to the vendor and returns the raw text.
	// credential is the provider's API key (or processor name for Document AI).
	Recognize(ctx context.Context, payload Payload, credential string) (string, error)
}

// CredentialSource resolves the credential of a provider, typically from user settings.
// A missing credential is returned as an empty string.
type CredentialSource interface {
	Credential(ctx context.Context, provider Provider) (string, error)
}

// StaticCredentials is a fixed CredentialSource.
type StaticCredentials map[Provider]string

// Credential implements CredentialSource.
func (c StaticCredentials) Credential(_ context.Context, provider Provider) (string, error) {
	return c[provider], nil
}

// Client is what callers of the gateway depend on.
type Client interface {
	Preflight(ctx context.Context, provider Provider, creds CredentialSource) error
	Recognize(ctx context.Context, provider Provider, payload Payload, creds CredentialSource) (string, error)
}
