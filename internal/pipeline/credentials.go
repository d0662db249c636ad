package pipeline

import (
	"context"

	"notecal/internal/ocr"
	"notecal/internal/settings"
	"notecal/pkg/services"
)

// Settings category and keys the pipeline reads.
const (
	SettingsCategoryOCR = settings.CategoryOCR
	SettingProvider     = settings.KeyProvider
)

// settingsCredentials resolves OCR credentials from a user's "ocr" settings.
type settingsCredentials struct {
	settings services.SettingsProvider
	userID   int64
}

// Credential implements ocr.CredentialSource.
func (c settingsCredentials) Credential(ctx context.Context, provider ocr.Provider) (string, error) {
	return c.settings.Setting(ctx, c.userID, SettingsCategoryOCR, provider.CredentialKey())
}

// resolveProvider reads and parses the user's configured OCR provider.
func resolveProvider(ctx context.Context, settings services.SettingsProvider, userID int64) (ocr.Provider, error) {
	name, err := settings.Setting(ctx, userID, SettingsCategoryOCR, SettingProvider)
	if err != nil {
		return ocr.ProviderUnknown, err
	}
	return ocr.ParseProvider(name)
}
