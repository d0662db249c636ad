package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notecal/internal/logger"
	"notecal/internal/reconciliation"
	syncsvc "notecal/internal/reconciliation/services"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the device cloud's document list into the local index",
	Long: `List a folder of the device cloud and reconcile it with the local document index.

New notes are added, notes whose version changed are marked for reprocessing,
and notes that disappeared remotely are removed unless they are flagged as agenda.
Folders and other non-note entries are ignored.

Required environment variables:
  DEVICE_API_URL   - Base URL of the device cloud API
  DEVICE_API_TOKEN - Access token for the device cloud`,
	Example: `  # Sync the configured folder (DEVICE_FOLDER)
  notecal sync

  # Sync a specific folder and print the summary as JSON
  notecal sync --folder /Agenda --json`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("folder", "", "Remote folder to sync (default: DEVICE_FOLDER)")
	syncCmd.Flags().Bool("json", false, "Output as JSON")
	syncCmd.Flags().Int("timeout", 120, "Timeout in seconds")
}

func runSync(cmd *cobra.Command, args []string) error {
	folder, _ := cmd.Flags().GetString("folder")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, logger.WithComponent("sync"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("sync", a.userID)
	defer a.Close(log)

	if folder == "" {
		folder = a.cfg.DeviceFolder
	}

	dev, err := a.deviceClient(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("folder", folder).Msg("Starting document sync")

	service := syncsvc.NewSyncService(reconciliation.NewDataReader(dev, a.store), a.store, nil)
	result, err := service.SyncDocuments(ctx, a.userID, folder)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(out))
	} else {
		printSyncResult(folder, result)
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d document(s) could not be synced", len(result.Failures))
	}
	return nil
}

func printSyncResult(folder string, result *syncsvc.SyncResult) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Sync of %s\n", folder)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Added:   %d\n", result.Added)
	fmt.Printf("Updated: %d\n", result.Updated)
	fmt.Printf("Removed: %d\n", result.Removed)
	if len(result.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "\nFailures:\n")
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "  %s %s (%s): %s\n", f.Action, f.Name, f.RemoteID, f.Error)
		}
	}
	fmt.Printf("Duration: %v\n", result.ProcessingTime.Round(time.Millisecond))
}
