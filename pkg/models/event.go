package models

import "time"

// EventSourceOCR tags events created from recognized handwriting.
const EventSourceOCR = "handwriting_ocr"

// Calendar is a user's calendar that events are written to.
type Calendar struct {
	ID        int64
	UserID    int64
	Name      string
	IsPrimary bool
	CreatedAt time.Time
}

// Event is a persisted calendar event.
type Event struct {
	ID         string // uuid
	UserID     int64
	CalendarID int64
	Title      string
	StartTime  time.Time
	EndTime    time.Time
	AllDay     bool

	// Provenance
	Source           string // e.g. EventSourceOCR
	SourceDocumentID int64  // DocumentRecord.ID the event was extracted from
	SourceLine       string // Verbatim extracted line

	CreatedAt time.Time
}

// EventSourceLink joins a created event to the document line it came from.
type EventSourceLink struct {
	ID            int64
	EventID       string
	DocumentID    int64
	ExtractedLine string
	CreatedAt     time.Time
}

// ParsedEventResult reports what happened to one recognized line during a pipeline run.
type ParsedEventResult struct {
	Line      string     `json:"line"`
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	IsAllDay  bool       `json:"is_all_day"`
	Created   bool       `json:"created"`
	EventID   string     `json:"event_id,omitempty"`
	Error     string     `json:"error,omitempty"`
}
