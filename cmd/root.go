package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notecal/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "notecal",
	Short: "notecal - turn handwritten agenda notes into calendar events",
	Long: `notecal mirrors the document list of a note-taking device's cloud,
recognizes the handwriting of a synced page with a configurable OCR provider,
and turns every agenda line into a calendar event.

Typical flow:
  notecal calendar add Personal --primary
  notecal settings set ocr provider openai
  notecal sync
  notecal process-pending
  notecal export -o agenda.ics`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("notecal executed")

		fmt.Println("Welcome to notecal!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
	rootCmd.PersistentFlags().Int64("user", 0, "User to act for (default: NOTECAL_USER_ID)")
}
