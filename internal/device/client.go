// Package device talks to the note device's cloud API: it lists the documents
// of a folder and renders a document with its handwritten annotations as PDF.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"notecal/internal/logger"
	"notecal/pkg/models"
)

const (
	// MaxDownloadSize bounds a rendered document.
	MaxDownloadSize = 64 << 20

	maxErrorBody = 16 * 1024
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string

	// HTTPClient is the transport wrapped with the bearer token. Optional.
	HTTPClient *http.Client
}

// Client implements services.DeviceClient over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     zerolog.Logger
}

// remoteEntry is one item of the listing, as the device cloud encodes it.
type remoteEntry struct {
	ID             string    `json:"ID"`
	Version        int64     `json:"Version"`
	VisibleName    string    `json:"VissibleName"`
	Type           string    `json:"Type"`
	ModifiedClient time.Time `json:"ModifiedClient"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient creates a device cloud client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	const op = "NewClient"

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s: DEVICE_API_URL is not set", op)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("%s: DEVICE_API_TOKEN is not set", op)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid device API URL: %w", op, err)
	}

	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})

	return &Client{
		baseURL: base,
		http:    oauth2.NewClient(ctx, src),
		log:     logger.WithComponent("device"),
	}, nil
}

// ListDocuments lists the entries of a folder.
func (c *Client) ListDocuments(ctx context.Context, folderPath string) ([]models.RemoteDocument, error) {
	const op = "ListDocuments"

	q := url.Values{}
	q.Set("folder", folderPath)

	resp, err := c.get(ctx, op, q, "documents")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []remoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%s: failed to decode listing: %w", op, err)
	}

	docs := make([]models.RemoteDocument, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, models.RemoteDocument{
			ID:           e.ID,
			Version:      e.Version,
			Name:         e.VisibleName,
			Type:         e.Type,
			LastModified: e.ModifiedClient,
		})
	}

	c.log.Debug().
		Str("folder", folderPath).
		Int("entries", len(docs)).
		Msg("Listed remote documents")

	return docs, nil
}

// DownloadWithAnnotations returns the document rendered as PDF with its annotations.
func (c *Client) DownloadWithAnnotations(ctx context.Context, remoteID string) ([]byte, error) {
	const op = "DownloadWithAnnotations"

	if strings.TrimSpace(remoteID) == "" {
		return nil, fmt.Errorf("%s: empty remote id", op)
	}

	q := url.Values{}
	q.Set("annotations", "true")

	resp, err := c.get(ctx, op, q, "documents", remoteID, "render")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read document: %w", op, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("%s: document %s exceeds %d bytes", op, remoteID, MaxDownloadSize)
	}

	c.log.Debug().
		Str("remote_id", remoteID).
		Int("bytes", len(data)).
		Msg("Downloaded annotated document")

	return data, nil
}

// get issues a GET below the base URL. Segments are escaped individually.
func (c *Client) get(ctx context.Context, op string, query url.Values, segments ...string) (*http.Response, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return resp, nil
}

func errorMessage(raw []byte) string {
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
