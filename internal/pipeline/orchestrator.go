// Package pipeline turns one synced handwritten document into calendar events.
//
// A run walks a fixed sequence and stops at the first fatal error:
//
//	LookupDocument -> DownloadContent -> Recognize -> SplitLines ->
//	ResolveCalendar -> (ParseLine -> Materialize)* -> UpdateDocumentRecord
//
// Only materialization failures are soft: they are reported on the line's
// result and the loop continues. A fatal error leaves the document unprocessed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"notecal/internal/agenda"
	"notecal/internal/events"
	"notecal/internal/logger"
	"notecal/internal/ocr"
	"notecal/internal/store"
	"notecal/pkg/models"
	"notecal/pkg/services"
)

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Documents services.DocumentStore
	Calendars services.CalendarStore
	Events    services.EventStore
	Settings  services.SettingsProvider
	Device    services.DeviceClient
	OCR       ocr.Client
	Clock     services.Clock

	// Policy is the bare-hour interpretation of the time parser.
	Policy agenda.BareHourPolicy

	// Location is the timezone of the reference date. Defaults to time.Local.
	Location *time.Location
}

// ProcessRequest identifies the document to process.
type ProcessRequest struct {
	UserID     int64
	DocumentID int64

	// CalendarID selects the target calendar. 0 picks the primary, then the first one.
	CalendarID int64

	// AutoCreate false parses every line without writing events.
	AutoCreate bool
}

// ProcessResult summarizes a completed run.
type ProcessResult struct {
	DocumentID      int64                      `json:"document_id"`
	DocumentName    string                     `json:"document_name"`
	Provider        string                     `json:"provider"`
	CalendarID      int64                      `json:"calendar_id"`
	RecognizedText  string                     `json:"recognized_text"`
	Results         []models.ParsedEventResult `json:"results"`
	CreatedEventIDs []string                   `json:"created_event_ids"`
	ProcessingTime  time.Duration              `json:"processing_time"`
}

// Orchestrator runs the document pipeline.
type Orchestrator struct {
	deps         Dependencies
	parser       *agenda.Parser
	materializer *events.Materializer
	log          zerolog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = services.SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Orchestrator{
		deps:         deps,
		parser:       agenda.NewParser(deps.Policy),
		materializer: events.NewMaterializer(deps.Events, deps.Clock),
		log:          logger.WithComponent("pipeline"),
	}
}

// ProcessDocument runs the pipeline for one document. Fatal errors are logged
// and returned as they are; ocr and NotFoundError types survive errors.As.
func (o *Orchestrator) ProcessDocument(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	const op = "ProcessDocument"
	startTime := time.Now()

	log := o.log.With().
		Int64("user_id", req.UserID).
		Int64("document_id", req.DocumentID).
		Logger()

	doc, err := o.lookupDocument(ctx, req)
	if err != nil {
		return nil, o.fatal(log, "lookup", err)
	}

	// Provider and credential are checked before the device download so a
	// misconfigured user never causes network traffic.
	provider, err := resolveProvider(ctx, o.deps.Settings, req.UserID)
	if err != nil {
		return nil, o.fatal(log, "resolve_provider", err)
	}
	creds := settingsCredentials{settings: o.deps.Settings, userID: req.UserID}
	if err := o.deps.OCR.Preflight(ctx, provider, creds); err != nil {
		return nil, o.fatal(log, "resolve_provider", err)
	}

	content, err := o.deps.Device.DownloadWithAnnotations(ctx, doc.RemoteID)
	if err != nil {
		return nil, o.fatal(log, "download", fmt.Errorf("%s: failed to download %s: %w", op, doc.RemoteID, err))
	}

	text, err := o.deps.OCR.Recognize(ctx, provider, ocr.NewPayload(content), creds)
	if err != nil {
		return nil, o.fatal(log, "recognize", err)
	}

	lines := agenda.SplitLines(text)

	calendarID, err := o.resolveCalendar(ctx, req)
	if err != nil {
		return nil, o.fatal(log, "resolve_calendar", err)
	}

	reference := o.deps.Clock.Now().In(o.deps.Location)
	result := &ProcessResult{
		DocumentID:      doc.ID,
		DocumentName:    doc.Name,
		Provider:        provider.String(),
		CalendarID:      calendarID,
		RecognizedText:  text,
		Results:         make([]models.ParsedEventResult, 0, len(lines)),
		CreatedEventIDs: []string{},
	}

	for _, line := range lines {
		lineResult := o.materializer.Materialize(ctx, events.Request{
			UserID:     req.UserID,
			CalendarID: calendarID,
			DocumentID: doc.ID,
			Line:       line,
			Parsed:     o.parser.Parse(line, reference),
			Reference:  reference,
			AutoCreate: req.AutoCreate,
		})
		result.Results = append(result.Results, lineResult)
		if lineResult.Created {
			result.CreatedEventIDs = append(result.CreatedEventIDs, lineResult.EventID)
		}
	}

	if err := o.deps.Documents.MarkProcessed(ctx, doc.ID, text, o.deps.Clock.Now()); err != nil {
		return nil, o.fatal(log, "update_document", fmt.Errorf("%s: failed to mark document %d processed: %w", op, doc.ID, err))
	}

	result.ProcessingTime = time.Since(startTime)

	log.Info().
		Str("provider", result.Provider).
		Int("lines", len(lines)).
		Int("created", len(result.CreatedEventIDs)).
		Dur("duration", result.ProcessingTime).
		Msg("Document processed")

	return result, nil
}

func (o *Orchestrator) lookupDocument(ctx context.Context, req ProcessRequest) (*models.DocumentRecord, error) {
	doc, err := o.deps.Documents.GetDocument(ctx, req.UserID, req.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Resource: "document", ID: req.DocumentID}
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveCalendar picks the requested calendar, else the primary one, else the first one.
func (o *Orchestrator) resolveCalendar(ctx context.Context, req ProcessRequest) (int64, error) {
	calendars, err := o.deps.Calendars.ListCalendars(ctx, req.UserID)
	if err != nil {
		return 0, err
	}

	if req.CalendarID != 0 {
		for _, c := range calendars {
			if c.ID == req.CalendarID {
				return c.ID, nil
			}
		}
		return 0, &NotFoundError{Resource: "calendar", ID: req.CalendarID}
	}

	for _, c := range calendars {
		if c.IsPrimary {
			return c.ID, nil
		}
	}
	if len(calendars) > 0 {
		return calendars[0].ID, nil
	}
	return 0, &NotFoundError{Resource: "calendar"}
}

func (o *Orchestrator) fatal(log zerolog.Logger, stage string, err error) error {
	log.Error().
		Err(err).
		Str("stage", stage).
		Msg("Document processing failed")
	return err
}
