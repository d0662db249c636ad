package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notecal/internal/device"
	"notecal/internal/logger"
	"notecal/internal/ocr"
	"notecal/internal/pipeline"
	"notecal/internal/sheets"
	"notecal/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [document-id]",
	Short: "Recognize a synced note and create calendar events from its lines",
	Long: `Download a synced note with its annotations, recognize the handwriting with the
configured OCR provider, and turn every line into a calendar event.

Lines with a recognizable date or time become timed or all-day events. Lines that
fail to be written are reported individually and do not stop the run.

The OCR provider and its credential come from the user's "ocr" settings,
falling back to OCR_PROVIDER and the provider's API key variable.

Required environment variables:
  DEVICE_API_URL   - Base URL of the device cloud API
  DEVICE_API_TOKEN - Access token for the device cloud

Optional environment variables:
  GOOGLE_SHEET_URL - Append every line result to this Google Sheet`,
	Example: `  # Process document 12 into the primary calendar
  notecal process 12

  # Only show what would be created
  notecal process 12 --no-create

  # Write into calendar 3 and print the result as JSON
  notecal process 12 --calendar 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Int64("calendar", 0, "Target calendar id (default: primary calendar)")
	processCmd.Flags().Bool("no-create", false, "Parse lines without creating events")
	processCmd.Flags().Bool("json", false, "Output as JSON")
	processCmd.Flags().Bool("no-audit", false, "Do not append results to GOOGLE_SHEET_URL")
	processCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	documentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || documentID <= 0 {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	calendarID, _ := cmd.Flags().GetInt64("calendar")
	noCreate, _ := cmd.Flags().GetBool("no-create")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noAudit, _ := cmd.Flags().GetBool("no-audit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, logger.WithComponent("process"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("process", a.userID)
	defer a.Close(log)

	dev, err := a.deviceClient(ctx)
	if err != nil {
		return err
	}
	orchestrator, err := a.orchestrator(dev)
	if err != nil {
		return err
	}

	log.Info().
		Int64("document_id", documentID).
		Int64("calendar_id", calendarID).
		Bool("no_create", noCreate).
		Msg("Starting document processing")

	result, err := orchestrator.ProcessDocument(ctx, pipeline.ProcessRequest{
		UserID:     a.userID,
		DocumentID: documentID,
		CalendarID: calendarID,
		AutoCreate: a.cfg.AutoCreateEvents && !noCreate,
	})
	if err != nil {
		return handleProcessError(err, log)
	}

	if !noAudit && a.cfg.GoogleSheetURL != "" {
		appendAudit(ctx, a, result, log)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printProcessResult(result)
	return nil
}

// appendAudit writes the line results to the audit sheet. Failures only warn.
func appendAudit(ctx context.Context, a *app, result *pipeline.ProcessResult, log zerolog.Logger) {
	svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL, sheets.Credentials{
		JSON: a.cfg.GoogleCredentials,
		File: a.cfg.GoogleCredentialsFile,
	})
	if err == nil {
		err = svc.AppendResults(ctx, a.cfg.GoogleSheetWorksheet, result.DocumentName, result.Results, time.Now().In(a.cfg.Location()))
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to append results to Google Sheet")
	}
}

// handleProcessError provides user-friendly error messages for pipeline failures
func handleProcessError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Document processing failed")

	var notFound *pipeline.NotFoundError
	var providerErr *ocr.ProviderError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.As(err, &notFound) && notFound.Resource == "calendar" && notFound.ID == 0:
		return fmt.Errorf("no calendar to write events to. Create one with: notecal calendar add <name> --primary")
	case errors.As(err, &notFound):
		return fmt.Errorf("%w. Run notecal sync or check the id with: notecal documents list", err)
	case errors.Is(err, ocr.ErrConfiguration):
		return fmt.Errorf("%w. Configure it with: notecal settings set ocr <key> <value>", err)
	case errors.Is(err, ocr.ErrFormat):
		return fmt.Errorf("the device returned a document the OCR provider cannot read: %w", err)
	case errors.As(err, &providerErr):
		return fmt.Errorf("OCR provider %s failed. Check the API key, quota and model: %w", providerErr.Provider, err)
	case errors.Is(err, device.ErrUnauthorized):
		return fmt.Errorf("device cloud rejected DEVICE_API_TOKEN: %w", err)
	default:
		return fmt.Errorf("processing failed: %w", err)
	}
}

func printProcessResult(result *pipeline.ProcessResult) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Document: %s (#%d)\n", result.DocumentName, result.DocumentID)
	fmt.Printf("Provider: %s  Calendar: %d\n", result.Provider, result.CalendarID)
	fmt.Println(strings.Repeat("=", 80))

	for _, r := range result.Results {
		fmt.Printf("%s %s\n", lineStatus(r), r.Line)
		if r.StartTime != nil {
			when := r.StartTime.Format("Mon 02.01.2006 15:04")
			if r.IsAllDay {
				when = r.StartTime.Format("Mon 02.01.2006") + " (all day)"
			}
			fmt.Printf("    %s  %s\n", when, r.Title)
		}
		if r.Error != "" {
			fmt.Printf("    error: %s\n", r.Error)
		}
	}

	fmt.Println()
	fmt.Printf("Lines: %d  Created: %d  Duration: %v\n",
		len(result.Results), len(result.CreatedEventIDs), result.ProcessingTime.Round(time.Millisecond))
}

func lineStatus(r models.ParsedEventResult) string {
	switch {
	case r.Error != "":
		return "❌"
	case r.Created:
		return "✅"
	default:
		return "·"
	}
}
