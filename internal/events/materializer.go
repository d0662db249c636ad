// Package events turns parsed agenda lines into persisted calendar events.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"notecal/internal/agenda"
	"notecal/internal/logger"
	"notecal/pkg/models"
	"notecal/pkg/services"
)

// Request describes one line to materialize.
type Request struct {
	UserID     int64
	CalendarID int64
	DocumentID int64

	// Line is the verbatim extracted line, stored as provenance.
	Line string

	// Parsed is the parser output for Line.
	Parsed agenda.Result

	// Reference is the day all-day events are placed on.
	Reference time.Time

	// AutoCreate false turns Materialize into a dry run.
	AutoCreate bool
}

// Materializer writes one event plus one source link per line.
type Materializer struct {
	events services.EventStore
	clock  services.Clock
	newID  func() string
	log    zerolog.Logger
}

// NewMaterializer creates a materializer on top of an event store.
func NewMaterializer(events services.EventStore, clock services.Clock) *Materializer {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &Materializer{
		events: events,
		clock:  clock,
		newID:  uuid.NewString,
		log:    logger.WithComponent("event-materializer"),
	}
}

// Materialize converts one parsed line into a result. Store failures are
// recorded on the result and never returned, so the caller can move on to the
// next line.
func (m *Materializer) Materialize(ctx context.Context, req Request) models.ParsedEventResult {
	result := models.ParsedEventResult{
		Line:      req.Line,
		Title:     req.Parsed.Title,
		StartTime: req.Parsed.StartTime,
		EndTime:   req.Parsed.EndTime,
		IsAllDay:  req.Parsed.IsAllDay(),
	}

	if !req.AutoCreate || strings.TrimSpace(req.Parsed.Title) == "" {
		return result
	}

	eventID, err := m.create(ctx, req)
	if err != nil {
		m.log.Warn().
			Err(err).
			Int64("document_id", req.DocumentID).
			Str("line", req.Line).
			Msg("Failed to materialize line, continuing")
		result.Error = err.Error()
		return result
	}

	result.Created = true
	result.EventID = eventID
	return result
}

// create stores the event and its source link. A failed link insert deletes
// the event again so no event exists without provenance.
func (m *Materializer) create(ctx context.Context, req Request) (string, error) {
	start, end, allDay := EffectiveSpan(req.Parsed, req.Reference)

	event := &models.Event{
		ID:               m.newID(),
		UserID:           req.UserID,
		CalendarID:       req.CalendarID,
		Title:            req.Parsed.Title,
		StartTime:        start,
		EndTime:          end,
		AllDay:           allDay,
		Source:           models.EventSourceOCR,
		SourceDocumentID: req.DocumentID,
		SourceLine:       req.Line,
		CreatedAt:        m.clock.Now(),
	}
	if err := m.events.InsertEvent(ctx, event); err != nil {
		return "", &MaterializationError{Line: req.Line, Stage: ErrEventInsert, Err: err}
	}

	link := &models.EventSourceLink{
		EventID:       event.ID,
		DocumentID:    req.DocumentID,
		ExtractedLine: req.Line,
		CreatedAt:     event.CreatedAt,
	}
	if err := m.events.InsertSourceLink(ctx, link); err != nil {
		if delErr := m.events.DeleteEvent(ctx, event.ID); delErr != nil {
			m.log.Error().
				Err(delErr).
				Str("event_id", event.ID).
				Msg("Failed to remove event after source link failure")
			err = errors.Join(err, delErr)
		}
		return "", &MaterializationError{Line: req.Line, Stage: ErrSourceLinkInsert, Err: err}
	}

	m.log.Debug().
		Str("event_id", event.ID).
		Str("title", event.Title).
		Bool("all_day", allDay).
		Msg("Event created")

	return event.ID, nil
}

// EffectiveSpan returns the stored start and end of a parsed line. Without a
// start time the event covers the whole reference day; without an end time it
// lasts agenda.DefaultDuration.
func EffectiveSpan(parsed agenda.Result, reference time.Time) (start, end time.Time, allDay bool) {
	if parsed.StartTime == nil {
		y, mo, d := reference.Date()
		start = time.Date(y, mo, d, 0, 0, 0, 0, reference.Location())
		end = time.Date(y, mo, d, 23, 59, 59, 0, reference.Location())
		return start, end, true
	}

	start = *parsed.StartTime
	if parsed.EndTime != nil {
		end = *parsed.EndTime
	} else {
		end = start.Add(agenda.DefaultDuration)
	}
	return start, end, false
}
