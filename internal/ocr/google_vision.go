package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleVisionConfig configures the Cloud Vision backend.
type GoogleVisionConfig struct {
	// Endpoint overrides the REST endpoint, e.g. for a regional host.
	Endpoint string
}

// GoogleVisionRecognizer runs DOCUMENT_TEXT_DETECTION with a per-user API key.
type GoogleVisionRecognizer struct {
	config GoogleVisionConfig
}

// NewGoogleVisionRecognizer creates the Cloud Vision backend.
func NewGoogleVisionRecognizer(config GoogleVisionConfig) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{config: config}
}

// Recognize implements Recognizer. A client is created per call because the
// API key belongs to the requesting user.
func (r *GoogleVisionRecognizer) Recognize(ctx context.Context, payload Payload, apiKey string) (string, error) {
	const op = "GoogleVisionRecognize"

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if r.config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(r.config.Endpoint))
	}

	client, err := vision.NewImageAnnotatorRESTClient(ctx, opts...)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to create Vision client")
	}
	defer client.Close()

	feature := []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}

	if payload.IsPDF() {
		resp, err := client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
			Requests: []*visionpb.AnnotateFileRequest{
				{
					InputConfig: &visionpb.InputConfig{
						Content:  payload.Data,
						MimeType: mimePDF,
					},
					Features: feature,
				},
			},
		})
		if err != nil {
			return "", visionCallError(err)
		}
		return visionFileText(resp)
	}

	resp, err := client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: payload.Data},
				Features: feature,
			},
		},
	})
	if err != nil {
		return "", visionCallError(err)
	}
	return visionImageText(resp)
}

// visionImageText extracts the full text annotation of a single image response.
func visionImageText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	page := resp.GetResponses()[0]
	if msg := page.GetError().GetMessage(); msg != "" {
		return "", &ProviderError{Provider: GoogleVision, Message: msg}
	}
	return strings.TrimSpace(page.GetFullTextAnnotation().GetText()), nil
}

// visionFileText joins the text of every page of a PDF response.
func visionFileText(resp *visionpb.BatchAnnotateFilesResponse) (string, error) {
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	file := resp.GetResponses()[0]
	if msg := file.GetError().GetMessage(); msg != "" {
		return "", &ProviderError{Provider: GoogleVision, Message: msg}
	}

	var pages []string
	for i, page := range file.GetResponses() {
		if msg := page.GetError().GetMessage(); msg != "" {
			return "", &ProviderError{Provider: GoogleVision, Message: fmt.Sprintf("page %d: %s", i+1, msg)}
		}
		if text := strings.TrimSpace(page.GetFullTextAnnotation().GetText()); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

func visionCallError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: GoogleVision, StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return &ProviderError{Provider: GoogleVision, Message: err.Error()}
}
