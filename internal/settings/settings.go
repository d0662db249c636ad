// Package settings resolves per-user settings. Values stored for a user win
// over process-wide defaults taken from the environment.
package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"notecal/internal/ocr"
)

// The "ocr" category holds the selected provider and the provider credentials.
const (
	CategoryOCR = "ocr"
	KeyProvider = "provider"
)

// Store is the persistence the provider layers over.
type Store interface {
	Setting(ctx context.Context, userID int64, category, key string) (string, error)
	ListSettings(ctx context.Context, userID int64, category string) (map[string]string, error)
	SetSettings(ctx context.Context, userID int64, category string, values map[string]string) error
}

// Defaults maps category -> key -> value.
type Defaults map[string]map[string]string

// Provider implements services.SettingsProvider.
type Provider struct {
	store    Store
	defaults Defaults
}

// NewProvider creates a provider. defaults may be nil.
func NewProvider(store Store, defaults Defaults) *Provider {
	if defaults == nil {
		defaults = Defaults{}
	}
	return &Provider{store: store, defaults: defaults}
}

// Setting returns the stored value, falling back to the default. Unset
// settings are returned as "".
func (p *Provider) Setting(ctx context.Context, userID int64, category, key string) (string, error) {
	value, err := p.store.Setting(ctx, userID, category, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return p.defaults[category][key], nil
}

// Effective returns the merged settings of a category.
func (p *Provider) Effective(ctx context.Context, userID int64, category string) (map[string]string, error) {
	merged := make(map[string]string)
	for k, v := range p.defaults[category] {
		if v != "" {
			merged[k] = v
		}
	}

	stored, err := p.store.ListSettings(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	for k, v := range stored {
		if strings.TrimSpace(v) != "" {
			merged[k] = v
		}
	}
	return merged, nil
}

// Set validates and stores settings of one category for a user.
func (p *Provider) Set(ctx context.Context, userID int64, category string, values map[string]string) error {
	if err := Validate(category, values); err != nil {
		return err
	}
	return p.store.SetSettings(ctx, userID, category, values)
}

// Validate checks keys and values of a known category. Unknown categories are
// accepted as free-form.
func Validate(category string, values map[string]string) error {
	if category != CategoryOCR {
		return nil
	}

	allowed := ocrKeys()
	for key, value := range values {
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("unknown setting %s.%s (known: %s)", category, key, strings.Join(sortedKeys(allowed), ", "))
		}
		if key == KeyProvider {
			if _, err := ocr.ParseProvider(value); err != nil {
				return err
			}
		}
	}
	return nil
}

func ocrKeys() map[string]struct{} {
	keys := map[string]struct{}{KeyProvider: {}}
	for _, p := range ocr.Providers() {
		if k := p.CredentialKey(); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Redact hides all but the last four characters of credential values.
func Redact(key, value string) string {
	if key == KeyProvider || value == "" {
		return value
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}

// Credentials returns the OCR credential source of a user.
func (p *Provider) Credentials(userID int64) ocr.CredentialSource {
	return userCredentials{provider: p, userID: userID}
}

type userCredentials struct {
	provider *Provider
	userID   int64
}

func (c userCredentials) Credential(ctx context.Context, provider ocr.Provider) (string, error) {
	return c.provider.Setting(ctx, c.userID, CategoryOCR, provider.CredentialKey())
}

// OCRProvider returns the user's selected OCR provider.
func (p *Provider) OCRProvider(ctx context.Context, userID int64) (ocr.Provider, error) {
	name, err := p.Setting(ctx, userID, CategoryOCR, KeyProvider)
	if err != nil {
		return ocr.ProviderUnknown, err
	}
	return ocr.ParseProvider(name)
}
