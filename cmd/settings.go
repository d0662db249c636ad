package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"notecal/internal/logger"
	"notecal/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage per-user settings such as the OCR provider and API keys",
	Long: `Per-user settings override the environment defaults.

The "ocr" category knows these keys:
  provider               openai, claude, gemini, google_vision, document_ai or tesseract
  openai_api_key         OpenAI API key
  anthropic_api_key      Anthropic API key
  gemini_api_key         Google AI Studio API key
  google_vision_api_key  Google Cloud Vision API key
  document_ai_processor  projects/<p>/locations/<l>/processors/<id>`,
}

var settingsSetCmd = &cobra.Command{
	Use:     "set [category] [key] [value]",
	Short:   "Store one setting",
	Example: `  notecal settings set ocr provider claude`,
	Args:    cobra.ExactArgs(3),
	RunE:    runSettingsSet,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [category]",
	Short: "Show the effective settings of a category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import settings from a YAML file",
	Example: `  # settings.yaml:
  #   ocr:
  #     provider: gemini
  #     gemini_api_key: AIza...
  notecal settings import settings.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsImport,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetCmd, settingsGetCmd, settingsImportCmd)

	settingsGetCmd.Flags().Bool("reveal", false, "Print credentials unredacted")
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("settings"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("settings", a.userID)
	defer a.Close(log)

	category, key, value := args[0], args[1], args[2]
	if err := a.settings.Set(ctx, a.userID, category, map[string]string{key: value}); err != nil {
		return err
	}

	log.Info().Str("category", category).Str("key", key).Msg("Setting stored")
	fmt.Printf("%s.%s = %s\n", category, key, settings.Redact(key, value))
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	reveal, _ := cmd.Flags().GetBool("reveal")
	category := settings.CategoryOCR
	if len(args) == 1 {
		category = args[0]
	}

	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("settings"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(logger.WithUser("settings", a.userID))

	values, err := a.settings.Effective(ctx, a.userID, category)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := values[k]
		if !reveal {
			v = settings.Redact(k, v)
		}
		fmt.Printf("%s.%s = %s\n", category, k, v)
	}
	return nil
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(30*time.Second, logger.WithComponent("settings"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("settings", a.userID)
	defer a.Close(log)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open settings file: %w", err)
	}
	defer f.Close()

	file, err := settings.ParseFile(f)
	if err != nil {
		return err
	}

	n, err := a.settings.Import(ctx, a.userID, file)
	if err != nil {
		return err
	}

	log.Info().Str("file", args[0]).Int("values", n).Msg("Settings imported")
	fmt.Printf("Imported %d settings from %s\n", n, args[0])
	return nil
}
