package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notecal/internal/agenda"
	"notecal/internal/events"
	"notecal/internal/logger"
	"notecal/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file | data-url | -]",
	Short: "Recognize the handwriting of a PDF or image with the configured OCR provider",
	Long: `Send a local PDF or image to an OCR provider and print the recognized text.

The argument is a file path, a "data:<mime>;base64,..." URL, or "-" to read a
data URL from stdin. The provider defaults to the user's "ocr.provider" setting.

With --parse every recognized line is also run through the agenda time parser,
showing the event each line would become.`,
	Example: `  # Recognize a scanned page with the configured provider
  notecal ocr page.png

  # Try another provider and preview the events
  notecal ocr monday.pdf --provider gemini --parse

  # Save the result as JSON
  notecal ocr page.png --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string       `json:"text"`
	Provider           string       `json:"provider"`
	Lines              []ParsedLine `json:"lines,omitempty"`
	ProcessedAt        time.Time    `json:"processed_at"`
	ProcessingDuration string       `json:"processing_duration"`
	Source             string       `json:"source"`
	Size               int          `json:"size"`
}

// ParsedLine is the agenda interpretation of one recognized line.
type ParsedLine struct {
	Line      string     `json:"line"`
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	AllDay    bool       `json:"all_day"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().String("provider", "", "OCR provider (openai, claude, gemini, google_vision, document_ai)")
	ocrCmd.Flags().Bool("parse", false, "Parse recognized lines as agenda entries")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	providerName, _ := cmd.Flags().GetString("provider")
	parse, _ := cmd.Flags().GetBool("parse")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, logger.WithComponent("ocr"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("ocr", a.userID)
	defer a.Close(log)

	payload, source, err := readOCRInput(args[0])
	if err != nil {
		return err
	}

	provider, err := selectProvider(ctx, a, providerName)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("source", source).
		Str("provider", provider.String()).
		Int("size", len(payload.Data)).
		Msg("Starting OCR processing")

	startTime := time.Now()
	text, err := a.gateway.Recognize(ctx, provider, payload, a.settings.Credentials(a.userID))
	if err != nil {
		return handleOCRError(err, log)
	}

	out := OCROutput{
		Text:               text,
		Provider:           provider.String(),
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime).String(),
		Source:             source,
		Size:               len(payload.Data),
	}
	if parse {
		policy, err := agenda.ParseBareHourPolicy(a.cfg.BareHourPolicy)
		if err != nil {
			return err
		}
		out.Lines = parseLines(agenda.NewParser(policy), text, time.Now().In(a.cfg.Location()))
	}

	return outputOCR(out, outputPath, jsonOutput, log)
}

// readOCRInput loads the payload from a file, a data URL or stdin.
func readOCRInput(arg string) (ocr.Payload, string, error) {
	switch {
	case arg == "-":
		raw, err := io.ReadAll(io.LimitReader(os.Stdin, 4*ocr.MaxPayloadBytes))
		if err != nil {
			return ocr.Payload{}, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		p, err := ocr.ParseDataURL(string(raw))
		return p, "stdin", err
	case strings.HasPrefix(arg, "data:"):
		p, err := ocr.ParseDataURL(arg)
		return p, "data-url", err
	}

	info, err := os.Stat(arg)
	if err != nil {
		if os.IsNotExist(err) {
			return ocr.Payload{}, "", fmt.Errorf("file not found: %s", arg)
		}
		return ocr.Payload{}, "", fmt.Errorf("error accessing file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ocr.Payload{}, "", fmt.Errorf("path is not a regular file: %s", arg)
	}
	if info.Size() > ocr.MaxPayloadBytes {
		return ocr.Payload{}, "", fmt.Errorf("file too large (%d bytes). Maximum size is %d bytes", info.Size(), ocr.MaxPayloadBytes)
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return ocr.Payload{}, "", fmt.Errorf("failed to read file: %w", err)
	}
	return ocr.NewPayload(data), filepath.Base(arg), nil
}

func selectProvider(ctx context.Context, a *app, name string) (ocr.Provider, error) {
	if name != "" {
		return ocr.ParseProvider(name)
	}
	return a.settings.OCRProvider(ctx, a.userID)
}

func parseLines(parser *agenda.Parser, text string, reference time.Time) []ParsedLine {
	var lines []ParsedLine
	for _, line := range agenda.SplitLines(text) {
		parsed := parser.Parse(line, reference)
		start, end, allDay := events.EffectiveSpan(parsed, reference)
		lines = append(lines, ParsedLine{
			Line:      line,
			Title:     parsed.Title,
			StartTime: &start,
			EndTime:   &end,
			AllDay:    allDay,
		})
	}
	return lines
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	var configErr *ocr.ConfigurationError
	var providerErr *ocr.ProviderError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.As(err, &configErr) && configErr.Provider == ocr.Tesseract:
		return fmt.Errorf("tesseract runs on the device only. Select a server provider with --provider or: notecal settings set ocr provider <name>")
	case errors.Is(err, ocr.ErrConfiguration):
		return fmt.Errorf("%w. Configure it with: notecal settings set ocr <key> <value>", err)
	case errors.Is(err, ocr.ErrFormat):
		return fmt.Errorf("unsupported input. Provide a PDF or an image: %w", err)
	case errors.As(err, &providerErr) && (providerErr.StatusCode == 401 || providerErr.StatusCode == 403):
		return fmt.Errorf("%s rejected the API key: %w", providerErr.Provider, err)
	case errors.As(err, &providerErr) && providerErr.StatusCode == 429:
		return fmt.Errorf("%s quota exceeded, try again later: %w", providerErr.Provider, err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// outputOCR formats and outputs the OCR results
func outputOCR(out OCROutput, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var data []byte
	if jsonOutput {
		var err error
		data, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		var b strings.Builder
		b.WriteString(out.Text)
		b.WriteString("\n")
		if len(out.Lines) > 0 {
			b.WriteString("\n=== Agenda ===\n")
			for _, l := range out.Lines {
				when := l.StartTime.Format("Mon 02.01.2006 15:04")
				if l.AllDay {
					when = l.StartTime.Format("Mon 02.01.2006")
				}
				fmt.Fprintf(&b, "  %-20s  %s\n", when, l.Title)
			}
		}
		data = []byte(b.String())
	}

	if outputPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("OCR results written to file")
	return nil
}
