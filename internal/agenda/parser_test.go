package agenda

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refDate = time.Date(2024, 1, 10, 8, 15, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 10, hour, minute, 0, 0, time.UTC)
}

func TestParseLine_Patterns(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		title string
		start time.Time
		end   time.Time
	}{
		{"at phrase bare hour reads as pm", "Dentist at 3", "Dentist", at(15, 0), at(16, 0)},
		{"range with meridiem on end only", "Team sync 9-10:30am", "Team sync", at(9, 0), at(10, 30)},
		{"from to range", "Soccer practice from 4 to 5:30", "Soccer practice", at(16, 0), at(17, 30)},
		{"range across noon", "Lunch 12-1", "Lunch", at(12, 0), at(13, 0)},
		{"range with spaces around dash", "Piano 10:00 - 11:15", "Piano", at(10, 0), at(11, 15)},
		{"range falls back to one hour", "Late show 10pm-1am", "Late show", at(22, 0), at(23, 0)},
		{"range end wraps by twelve hours", "Workshop 11am-1", "Workshop", at(11, 0), at(13, 0)},
		{"at phrase with meridiem", "Meeting at 11am", "Meeting", at(11, 0), at(12, 0)},
		{"at phrase with minutes", "Pickup at 7:45pm", "Pickup", at(19, 45), at(20, 45)},
		{"standalone pm", "Call grandma 5pm", "Call grandma", at(17, 0), at(18, 0)},
		{"standalone with space before meridiem", "Vet 11:30 am", "Vet", at(11, 30), at(12, 30)},
		{"twelve am is midnight", "Midnight snack 12am", "Midnight snack", at(0, 0), at(1, 0)},
		{"twelve pm stays noon", "Picnic 12pm", "Picnic", at(12, 0), at(13, 0)},
		{"military time", "Standup 14:30", "Standup", at(14, 30), at(15, 30)},
		{"military small hour gets heuristic", "Yoga 3:30", "Yoga", at(15, 30), at(16, 30)},
		{"leading time and punctuation", "- 4pm: Piano lesson", "Piano lesson", at(16, 0), at(17, 0)},
		{"lowercase title is capitalized", "wake up at 5", "Wake up", at(17, 0), at(18, 0)},
		{"enclosing brackets are stripped", "(Dentist at 3)", "Dentist", at(15, 0), at(16, 0)},
		{"trailing symbol is stripped", "Gym @ 7pm", "Gym", at(19, 0), at(20, 0)},
		{"leading bullet symbol", "• Piano 10:00 - 11:15", "Piano", at(10, 0), at(11, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line, refDate)
			require.NotNil(t, got.StartTime)
			require.NotNil(t, got.EndTime)
			assert.Equal(t, tt.title, got.Title)
			assert.Equal(t, tt.start, *got.StartTime)
			assert.Equal(t, tt.end, *got.EndTime)
			assert.False(t, got.IsAllDay())
		})
	}
}

func TestParseLine_NoTime(t *testing.T) {
	tests := []struct {
		line  string
		title string
	}{
		{"buy milk", "Buy milk"},
		{"Room 99", "Room 99"},
		{"Flight   25:00", "Flight 25:00"},
		{"Grandma's birthday!", "Grandma's birthday!"},
	}

	for _, tt := range tests {
		got := ParseLine(tt.line, refDate)
		assert.Equal(t, tt.title, got.Title, tt.line)
		assert.Nil(t, got.StartTime, tt.line)
		assert.Nil(t, got.EndTime, tt.line)
		assert.True(t, got.IsAllDay(), tt.line)
	}
}

func TestParseLine_TimeOnlyLineKeepsOriginalAsTitle(t *testing.T) {
	got := ParseLine("at 3", refDate)
	assert.Equal(t, "At 3", got.Title)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, at(15, 0), *got.StartTime)

	got = ParseLine("9-10", refDate)
	assert.Equal(t, "9-10", got.Title)
}

func TestParser_LiteralPolicy(t *testing.T) {
	p := NewParser(Literal)

	got := p.Parse("wake up at 5", refDate)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, at(5, 0), *got.StartTime)
	assert.Equal(t, at(6, 0), *got.EndTime)

	got = p.Parse("Yoga 3:30", refDate)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, at(3, 30), *got.StartTime)
}

func TestParseLine_UsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ref := time.Date(2024, 3, 1, 23, 0, 0, 0, loc)

	got := ParseLine("Dinner 7pm", ref)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, time.Date(2024, 3, 1, 19, 0, 0, 0, loc), *got.StartTime)
}

func TestParseLine_RangeEndAlwaysAfterStart(t *testing.T) {
	for from := 0; from <= 23; from++ {
		for to := 0; to <= 23; to++ {
			line := fmt.Sprintf("Block %d-%d", from, to)
			got := ParseLine(line, refDate)
			require.NotNil(t, got.StartTime, line)
			require.NotNil(t, got.EndTime, line)
			assert.True(t, got.EndTime.After(*got.StartTime), line)
		}
	}
}

func TestParseBareHourPolicy(t *testing.T) {
	p, err := ParseBareHourPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AfternoonBias, p)

	p, err = ParseBareHourPolicy(" Literal ")
	require.NoError(t, err)
	assert.Equal(t, Literal, p)
	assert.Equal(t, "literal", p.String())

	_, err = ParseBareHourPolicy("morning")
	assert.Error(t, err)
}
