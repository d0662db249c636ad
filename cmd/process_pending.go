package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notecal/internal/logger"
	"notecal/internal/pipeline"
	"notecal/pkg/models"
)

var processPendingCmd = &cobra.Command{
	Use:   "process-pending",
	Short: "Process every synced note that has not been processed yet",
	Long: `Run the document pipeline for every unprocessed note of the user with a pool
of parallel workers. Each note is processed independently: a failing note is
reported and stays unprocessed, the others continue.

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 2)`,
	Example: `  # Sync, then process everything new or changed
  notecal sync && notecal process-pending

  # Preview with 4 workers without creating events
  notecal process-pending --workers 4 --no-create`,
	RunE: runProcessPending,
}

// PendingResult is the outcome of one note of a batch.
type PendingResult struct {
	Document models.DocumentRecord
	Result   *pipeline.ProcessResult
	Error    error
	Index    int
}

// pendingJob is one note handed to a worker.
type pendingJob struct {
	Document models.DocumentRecord
	Index    int
}

func init() {
	rootCmd.AddCommand(processPendingCmd)

	processPendingCmd.Flags().Int("workers", 0, "Number of parallel workers (default: BATCH_WORKERS)")
	processPendingCmd.Flags().Int64("calendar", 0, "Target calendar id (default: primary calendar)")
	processPendingCmd.Flags().Bool("no-create", false, "Parse lines without creating events")
	processPendingCmd.Flags().Bool("no-audit", false, "Do not append results to GOOGLE_SHEET_URL")
	processPendingCmd.Flags().Int("timeout", 1800, "Timeout for the whole batch in seconds")
}

func runProcessPending(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	calendarID, _ := cmd.Flags().GetInt64("calendar")
	noCreate, _ := cmd.Flags().GetBool("no-create")
	noAudit, _ := cmd.Flags().GetBool("no-audit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, logger.WithComponent("process-pending"))
	defer cancel()

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	log := logger.WithUser("process-pending", a.userID)
	defer a.Close(log)

	if workers <= 0 {
		workers = a.cfg.BatchWorkers
	}

	pending, err := a.store.ListUnprocessed(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed documents: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("No unprocessed documents. Run notecal sync first?")
		return nil
	}

	dev, err := a.deviceClient(ctx)
	if err != nil {
		return err
	}
	orchestrator, err := a.orchestrator(dev)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d documents with %d parallel workers...\n\n", len(pending), workers)

	template := pipeline.ProcessRequest{
		UserID:     a.userID,
		CalendarID: calendarID,
		AutoCreate: a.cfg.AutoCreateEvents && !noCreate,
	}
	results := processInParallel(ctx, orchestrator, template, pending, workers, log)

	failed, created := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		created += len(r.Result.CreatedEventIDs)
		if !noAudit && a.cfg.GoogleSheetURL != "" {
			appendAudit(ctx, a, r.Result, log)
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Processed: %d\n", len(results)-failed)
	fmt.Printf("Failed:    %d\n", failed)
	fmt.Printf("Events:    %d\n", created)
	fmt.Println(strings.Repeat("=", 50))

	log.Info().
		Int("total", len(results)).
		Int("failed", failed).
		Int("events_created", created).
		Msg("Batch processing completed")

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

// documentProcessor is the part of the orchestrator the worker pool needs.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error)
}

// processInParallel runs one pipeline invocation per document using a worker
// pool. Results keep the order of docs.
func processInParallel(ctx context.Context, p documentProcessor, template pipeline.ProcessRequest, docs []models.DocumentRecord, numWorkers int, log zerolog.Logger) []PendingResult {
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan pendingJob, len(docs))
	results := make([]PendingResult, len(docs))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Int64("document_id", job.Document.ID).
					Msg("Worker processing document")

				req := template
				req.DocumentID = job.Document.ID
				res, err := p.ProcessDocument(ctx, req)
				results[job.Index] = PendingResult{Document: job.Document, Result: res, Error: err, Index: job.Index}

				mu.Lock()
				processedCount++
				fmt.Printf("[%d/%d] %s - ", processedCount, len(docs), job.Document.Name)
				if err != nil {
					fmt.Printf("❌ (%s)\n", err.Error())
				} else {
					fmt.Printf("✅ (%d events)\n", len(res.CreatedEventIDs))
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, doc := range docs {
		jobs <- pendingJob{Document: doc, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}
