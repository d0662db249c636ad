package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"notecal/internal/logger"
	"notecal/internal/reconciliation"
	"notecal/pkg/models"
	domain "notecal/pkg/services"
)

// Sync actions reported in SyncFailure.Action.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
)

// SyncResult contains the results of a sync run. Counts only include
// mutations that were persisted.
type SyncResult struct {
	reconciliation.Counts
	Failures       []SyncFailure `json:"failures,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// SyncFailure records one mutation that could not be persisted.
type SyncFailure struct {
	RemoteID string `json:"remote_id"`
	Name     string `json:"name"`
	Action   string `json:"action"`
	Error    string `json:"error"`
}

// SyncService keeps a user's document index current with the device cloud.
//
// Runs for the same user are serialized in-process. Separate processes are
// not coordinated; the store's unique (user_id, remote_id) key turns a
// concurrent double insert into a per-document failure.
type SyncService struct {
	reader    *reconciliation.DataReader
	documents domain.DocumentStore
	clock     domain.Clock
	log       zerolog.Logger

	mu    sync.Mutex
	locks map[int64]chan struct{}
}

// NewSyncService creates a new sync service
func NewSyncService(reader *reconciliation.DataReader, documents domain.DocumentStore, clock domain.Clock) *SyncService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &SyncService{
		reader:    reader,
		documents: documents,
		clock:     clock,
		log:       logger.WithComponent("sync"),
		locks:     make(map[int64]chan struct{}),
	}
}

// SyncDocuments reconciles the user's index against folderPath and applies the
// diff. Reading either side is fatal; each mutation fails independently.
func (s *SyncService) SyncDocuments(ctx context.Context, userID int64, folderPath string) (*SyncResult, error) {
	const op = "SyncDocuments"
	startTime := time.Now()

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: waiting for running sync of user %d: %w", op, userID, err)
	}
	defer unlock()

	data, err := s.reader.Read(ctx, userID, folderPath)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to read sync data")
		return nil, err
	}

	diff := reconciliation.Reconcile(data.Remote, data.Local, reconciliation.Options{
		UserID:     userID,
		FolderPath: folderPath,
		Now:        s.clock.Now(),
	})

	planned := diff.Counts()
	s.log.Info().
		Int64("user_id", userID).
		Int("remote", len(data.Remote)).
		Int("local", len(data.Local)).
		Int("added", planned.Added).
		Int("updated", planned.Updated).
		Int("removed", planned.Removed).
		Msg("Reconciliation planned")

	result := &SyncResult{}

	for i := range diff.Added {
		doc := &diff.Added[i]
		if err := s.documents.InsertDocument(ctx, doc); err != nil {
			result.fail(s.log, *doc, ActionAdd, err)
			continue
		}
		result.Added++
	}

	for i := range diff.Updated {
		doc := &diff.Updated[i]
		if err := s.documents.UpdateDocument(ctx, doc); err != nil {
			result.fail(s.log, *doc, ActionUpdate, err)
			continue
		}
		result.Updated++
	}

	for _, doc := range diff.Removed {
		if err := s.documents.DeleteDocument(ctx, doc.UserID, doc.ID); err != nil {
			result.fail(s.log, doc, ActionRemove, err)
			continue
		}
		result.Removed++
	}

	result.ProcessingTime = time.Since(startTime)

	s.log.Info().
		Int64("user_id", userID).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("removed", result.Removed).
		Int("failures", len(result.Failures)).
		Dur("duration", result.ProcessingTime).
		Msg("Sync completed")

	return result, nil
}

func (r *SyncResult) fail(log zerolog.Logger, doc models.DocumentRecord, action string, err error) {
	log.Warn().
		Err(err).
		Str("remote_id", doc.RemoteID).
		Str("action", action).
		Msg("Failed to apply document change, continuing")
	r.Failures = append(r.Failures, SyncFailure{
		RemoteID: doc.RemoteID,
		Name:     doc.Name,
		Action:   action,
		Error:    err.Error(),
	})
}

// lock waits for the user's sync slot, or for ctx to end.
func (s *SyncService) lock(ctx context.Context, userID int64) (func(), error) {
	s.mu.Lock()
	slot, ok := s.locks[userID]
	if !ok {
		slot = make(chan struct{}, 1)
		s.locks[userID] = slot
	}
	s.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
