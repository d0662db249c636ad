package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/internal/ocr"
	"notecal/internal/store"
)

func newTestProvider(t *testing.T, defaults Defaults) (*Provider, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewProvider(st, defaults), st
}

func TestStoredSettingWinsOverDefault(t *testing.T) {
	ctx := context.Background()
	p, st := newTestProvider(t, Defaults{CategoryOCR: {"provider": "openai", "openai_api_key": "env-key"}})

	value, err := p.Setting(ctx, 1, CategoryOCR, "provider")
	require.NoError(t, err)
	assert.Equal(t, "openai", value)

	require.NoError(t, st.SetSetting(ctx, 1, CategoryOCR, "provider", "gemini"))

	value, err = p.Setting(ctx, 1, CategoryOCR, "provider")
	require.NoError(t, err)
	assert.Equal(t, "gemini", value)

	value, err = p.Setting(ctx, 1, CategoryOCR, "claude_api_key")
	require.NoError(t, err)
	assert.Empty(t, value)

	merged, err := p.Effective(ctx, 1, CategoryOCR)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"provider": "gemini", "openai_api_key": "env-key"}, merged)
}

func TestSetValidates(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, nil)

	err := p.Set(ctx, 1, CategoryOCR, map[string]string{"provider": "abbyy"})
	assert.ErrorIs(t, err, ocr.ErrConfiguration)

	err = p.Set(ctx, 1, CategoryOCR, map[string]string{"openai_key": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_api_key")

	require.NoError(t, p.Set(ctx, 1, CategoryOCR, map[string]string{"provider": "claude", "anthropic_api_key": "sk-ant"}))
	require.NoError(t, p.Set(ctx, 1, "display", map[string]string{"theme": "dark"}))
}

func TestImportYAML(t *testing.T) {
	ctx := context.Background()
	p, st := newTestProvider(t, nil)

	f, err := ParseFile(strings.NewReader(`
ocr:
  provider: google_vision
  google_vision_api_key: AIza-test
display:
  theme: dark
`))
	require.NoError(t, err)

	n, err := p.Import(ctx, 1, f)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	value, err := st.Setting(ctx, 1, CategoryOCR, "provider")
	require.NoError(t, err)
	assert.Equal(t, "google_vision", value)
}

func TestImportRejectsInvalidFileAtomically(t *testing.T) {
	ctx := context.Background()
	p, st := newTestProvider(t, nil)

	n, err := p.Import(ctx, 1, File{
		"display": {"theme": "dark"},
		CategoryOCR: {"provider": "tesseract-server"},
	})
	require.Error(t, err)
	assert.Zero(t, n)

	all, err := st.ListSettings(ctx, 1, "display")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestParseFileErrors(t *testing.T) {
	_, err := ParseFile(strings.NewReader("ocr: [not, a, map]"))
	assert.Error(t, err)

	f, err := ParseFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "gemini", Redact("provider", "gemini"))
	assert.Equal(t, "********1234", Redact("openai_api_key", "sk-abcdef1234"))
	assert.Equal(t, "***", Redact("openai_api_key", "abc"))
	assert.Empty(t, Redact("openai_api_key", ""))
}

func TestCredentialsAndProvider(t *testing.T) {
	ctx := context.Background()
	p, st := newTestProvider(t, Defaults{CategoryOCR: {KeyProvider: "gemini", "gemini_api_key": "env-gemini"}})

	provider, err := p.OCRProvider(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ocr.Gemini, provider)

	require.NoError(t, st.SetSetting(ctx, 1, CategoryOCR, "openai_api_key", "sk-user"))

	creds := p.Credentials(1)
	key, err := creds.Credential(ctx, ocr.OpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-user", key)

	key, err = creds.Credential(ctx, ocr.Gemini)
	require.NoError(t, err)
	assert.Equal(t, "env-gemini", key)

	key, err = p.Credentials(2).Credential(ctx, ocr.OpenAI)
	require.NoError(t, err)
	assert.Empty(t, key)
}
