package ocr

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"
)

const mimePDF = "application/pdf"

var dataURLPattern = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+);base64,([A-Za-z0-9+/=\s]+)$`)

// Payload is the document sent to a provider.
type Payload struct {
	MimeType string
	Data     []byte
}

// NewPayload wraps raw bytes and detects whether they are a PDF or an image.
func NewPayload(data []byte) Payload {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return Payload{MimeType: mimePDF, Data: data}
	}
	return Payload{MimeType: http.DetectContentType(data), Data: data}
}

// ParseDataURL decodes a "data:<mime>;base64,<data>" string.
func ParseDataURL(dataURL string) (Payload, error) {
	const op = "ParseDataURL"

	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return Payload{}, &FormatError{Reason: "expected data:<mime>;base64,<data>"}
	}

	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(m[2]), ""))
	if err != nil {
		return Payload{}, WrapOCRError(op, &FormatError{Reason: "base64 body does not decode"}, err.Error())
	}
	if len(data) == 0 {
		return Payload{}, &FormatError{Reason: "empty base64 body"}
	}

	return Payload{MimeType: strings.ToLower(m[1]), Data: data}, nil
}

// IsPDF reports whether the payload is a PDF document.
func (p Payload) IsPDF() bool {
	return p.MimeType == mimePDF
}

// Base64 returns the standard base64 encoding of the data.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURL renders the payload as a data URL.
func (p Payload) DataURL() string {
	return "data:" + p.MimeType + ";base64," + p.Base64()
}
