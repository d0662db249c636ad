package ocr

import (
	"context"
	"fmt"
	"regexp"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// processorNamePattern matches a Document AI processor resource name, optionally versioned.
var processorNamePattern = regexp.MustCompile(`^projects/[^/]+/locations/([^/]+)/processors/[^/]+(/processorVersions/[^/]+)?$`)

// DocumentAIConfig configures the Document AI backend. The per-user credential
// is the processor resource name; authentication uses service account credentials.
type DocumentAIConfig struct {
	Endpoint        string        // overrides the regional endpoint
	CredentialsJSON string        // inline service account JSON (GOOGLE_CREDENTIALS)
	CredentialsFile string        // service account file (GOOGLE_APPLICATION_CREDENTIALS)
	Timeout         time.Duration // default 60s
}

// DocumentAIRecognizer runs a Document AI OCR processor.
type DocumentAIRecognizer struct {
	config DocumentAIConfig
}

// NewDocumentAIRecognizer creates the Document AI backend.
func NewDocumentAIRecognizer(config DocumentAIConfig) *DocumentAIRecognizer {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIRecognizer{config: config}
}

// Recognize implements Recognizer. processorName has the form
// projects/{project}/locations/{location}/processors/{id}.
func (r *DocumentAIRecognizer) Recognize(ctx context.Context, payload Payload, processorName string) (string, error) {
	const op = "DocumentAIRecognize"

	location, err := processorLocation(processorName)
	if err != nil {
		return "", err
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, r.clientOptions(location)...)
	if err != nil {
		return "", WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", location))
	}
	defer client.Close()

	processCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	resp, err := client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  payload.Data,
				MimeType: payload.MimeType,
			},
		},
	})
	if err != nil {
		return "", documentAIError(err)
	}
	return resp.GetDocument().GetText(), nil
}

func (r *DocumentAIRecognizer) clientOptions(location string) []option.ClientOption {
	var opts []option.ClientOption

	switch {
	case r.config.Endpoint != "":
		opts = append(opts, option.WithEndpoint(r.config.Endpoint))
	case location != "us":
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", location)))
	}

	if r.config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(r.config.CredentialsJSON)))
	} else if r.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(r.config.CredentialsFile))
	}
	return opts
}

func processorLocation(processorName string) (string, error) {
	m := processorNamePattern.FindStringSubmatch(processorName)
	if m == nil {
		return "", &ConfigurationError{
			Provider: DocumentAI,
			Setting:  DocumentAI.CredentialKey(),
			Reason:   "expected projects/{project}/locations/{location}/processors/{id}",
		}
	}
	return m[1], nil
}

func documentAIError(err error) error {
	if st, ok := status.FromError(err); ok {
		return &ProviderError{Provider: DocumentAI, Message: fmt.Sprintf("%s: %s", st.Code(), st.Message())}
	}
	return &ProviderError{Provider: DocumentAI, Message: err.Error()}
}
