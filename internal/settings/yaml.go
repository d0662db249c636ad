package settings

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout accepted by Import:
//
//	ocr:
//	  provider: gemini
//	  gemini_api_key: AIza...
type File map[string]map[string]string

// ParseFile decodes a settings file.
func ParseFile(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return nil, fmt.Errorf("invalid settings file: %w", err)
	}
	return f, nil
}

// Import validates every category of f and then stores it. Nothing is stored
// when any category is invalid. It returns the number of values written.
func (p *Provider) Import(ctx context.Context, userID int64, f File) (int, error) {
	for category, values := range f {
		if err := Validate(category, values); err != nil {
			return 0, err
		}
	}

	n := 0
	for _, category := range sortedKeys(f) {
		if err := p.store.SetSettings(ctx, userID, category, f[category]); err != nil {
			return n, fmt.Errorf("failed to store %s settings: %w", category, err)
		}
		n += len(f[category])
	}
	return n, nil
}
