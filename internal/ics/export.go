// Package ics writes calendar events as an iCalendar (RFC 5545) stream.
package ics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"notecal/pkg/models"
)

// ProductID identifies the producer in exported calendars.
const ProductID = "-//notecal//agenda export//EN"

// ErrNoEvents is returned when there is nothing to export.
var ErrNoEvents = errors.New("no events to export")

// Export encodes events as one VCALENDAR. stamp is written as DTSTAMP.
// All-day events take their date in loc; nil means UTC.
func Export(w io.Writer, events []models.Event, loc *time.Location, stamp time.Time) error {
	const op = "Export"

	if len(events) == 0 {
		return ErrNoEvents
	}
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for i := range events {
		cal.Children = append(cal.Children, toVEvent(&events[i], loc, stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("%s: failed to encode calendar: %w", op, err)
	}
	return nil
}

func toVEvent(event *models.Event, loc *time.Location, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID+"@notecal")
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	if event.AllDay {
		// DTEND of a DATE event is exclusive.
		start := event.StartTime.In(loc)
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		ve.Props.SetDate(ical.PropDateTimeStart, day)
		ve.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())
	}

	if event.SourceLine != "" {
		ve.Props.SetText(ical.PropDescription, event.SourceLine)
	}
	return ve
}
