package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"notecal/internal/ics"
	"notecal/internal/logger"
	"notecal/internal/store"
	"notecal/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export events created from handwritten notes as an iCalendar file",
	Long: `Write the events that were created from recognized notes to an .ics file
that any calendar application can import.`,
	Example: `  # Export everything to agenda.ics
  notecal export -o agenda.ics

  # Export the events of one document to stdout
  notecal export --document 12`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().Int64("document", 0, "Only events extracted from this document")
}

func runExport(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	documentID, _ := cmd.Flags().GetInt64("document")

	ctx, cancel := commandContext(time.Minute, logger.WithComponent("export"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("export", a.userID)
	defer a.Close(log)

	evts, err := a.store.ListEvents(ctx, a.userID, store.EventFilter{
		DocumentID: documentID,
		Source:     models.EventSourceOCR,
	})
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := ics.Export(out, evts, a.cfg.Location(), time.Now()); err != nil {
		if errors.Is(err, ics.ErrNoEvents) {
			return fmt.Errorf("no events to export. Process a document first: notecal process <id>")
		}
		return err
	}

	log.Info().
		Int("events", len(evts)).
		Str("output_file", outputPath).
		Msg("Events exported")
	return nil
}
