package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

// vendorErrorFunc extracts the vendor's own error message from a failed response body.
type vendorErrorFunc func(body []byte) string

// postJSON issues one blocking JSON POST. Non-2xx responses become a *ProviderError
// carrying the vendor message when errMessage finds one.
func postJSON(ctx context.Context, client *http.Client, provider Provider, url string, headers map[string]string, in, out any, errMessage vendorErrorFunc) error {
	const op = "postJSON"

	body, err := json.Marshal(in)
	if err != nil {
		return WrapOCRError(op, err, fmt.Sprintf("failed to encode %s request", provider))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return WrapOCRError(op, err, fmt.Sprintf("failed to build %s request", provider))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errMessage(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("undecodable response: %v", err),
		}
	}
	return nil
}
