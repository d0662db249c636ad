// Package agenda turns recognized handwriting into agenda entries.
//
// SplitLines cuts raw OCR text into candidate lines and Parser extracts a title
// and an optional time range from each line. Only a bounded set of time phrases
// is understood, tried in this order:
//
//   - ranges:      "9-10:30am", "from 2 to 4pm", "10:00 - 11:15"
//   - at-phrases:  "at 3", "at 7:45pm"
//   - 12h times:   "5pm", "11:30 am" (am/pm mandatory)
//   - 24h times:   "14:30"
//
// A line without any of them is an all-day entry.
package agenda

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultDuration is the length given to entries with a start but no end.
const DefaultDuration = time.Hour

var (
	rangePattern      = regexp.MustCompile(`(?i)(?:\bfrom\s+)?\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:to|-|–)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	atPattern         = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	standalonePattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	militaryPattern   = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

// Result is the outcome of parsing one line.
type Result struct {
	Title     string
	StartTime *time.Time
	EndTime   *time.Time
}

// IsAllDay reports whether no time was found on the line.
func (r Result) IsAllDay() bool {
	return r.StartTime == nil
}

// Parser extracts titles and times from agenda lines.
type Parser struct {
	Policy BareHourPolicy
}

// NewParser returns a parser applying the given bare-hour policy.
func NewParser(policy BareHourPolicy) *Parser {
	return &Parser{Policy: policy}
}

// ParseLine parses a line with the AfternoonBias policy.
func ParseLine(line string, referenceDate time.Time) Result {
	return NewParser(AfternoonBias).Parse(line, referenceDate)
}

// Parse extracts a title and time range from line. Times are placed on the
// calendar day of referenceDate, in its location.
func (p *Parser) Parse(line string, referenceDate time.Time) Result {
	if start, end, loc, ok := p.matchRange(line, referenceDate); ok {
		return p.result(line, loc, start, end)
	}
	if start, loc, ok := p.matchSingle(atPattern, line, referenceDate); ok {
		return p.result(line, loc, start, start.Add(DefaultDuration))
	}
	if start, loc, ok := p.matchSingle(standalonePattern, line, referenceDate); ok {
		return p.result(line, loc, start, start.Add(DefaultDuration))
	}
	if start, loc, ok := p.matchMilitary(line, referenceDate); ok {
		return p.result(line, loc, start, start.Add(DefaultDuration))
	}

	return Result{Title: fallbackTitle(line)}
}

func (p *Parser) matchRange(line string, ref time.Time) (time.Time, time.Time, []int, bool) {
	m := rangePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return time.Time{}, time.Time{}, nil, false
	}

	start, ok := p.resolve(ref, group(line, m, 1), group(line, m, 2), group(line, m, 3))
	if !ok {
		return time.Time{}, time.Time{}, nil, false
	}
	end, ok := p.resolve(ref, group(line, m, 4), group(line, m, 5), group(line, m, 6))
	if !ok {
		return time.Time{}, time.Time{}, nil, false
	}

	if !end.After(start) {
		end = end.Add(12 * time.Hour)
		if !end.After(start) {
			end = start.Add(DefaultDuration)
		}
	}
	return start, end, m[:2], true
}

func (p *Parser) matchSingle(re *regexp.Regexp, line string, ref time.Time) (time.Time, []int, bool) {
	m := re.FindStringSubmatchIndex(line)
	if m == nil {
		return time.Time{}, nil, false
	}
	start, ok := p.resolve(ref, group(line, m, 1), group(line, m, 2), group(line, m, 3))
	if !ok {
		return time.Time{}, nil, false
	}
	return start, m[:2], true
}

func (p *Parser) matchMilitary(line string, ref time.Time) (time.Time, []int, bool) {
	m := militaryPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return time.Time{}, nil, false
	}
	start, ok := p.resolve(ref, group(line, m, 1), group(line, m, 2), "")
	if !ok {
		return time.Time{}, nil, false
	}
	return start, m[:2], true
}

// resolve applies the hour/minute/meridiem rule and places the time on the
// reference day.
func (p *Parser) resolve(ref time.Time, hourText, minuteText, meridiem string) (time.Time, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}

	minute := 0
	if minuteText != "" {
		minute, err = strconv.Atoi(minuteText)
		if err != nil || minute > 59 {
			return time.Time{}, false
		}
	}

	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		hour = p.Policy.apply(hour)
	}

	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location()), true
}

func (p *Parser) result(line string, loc []int, start, end time.Time) Result {
	title := cleanTitle(line[:loc[0]] + " " + line[loc[1]:])
	if title == "" {
		title = fallbackTitle(line)
	}
	return Result{Title: title, StartTime: &start, EndTime: &end}
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func cleanTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return capitalize(s)
}

func fallbackTitle(line string) string {
	return capitalize(strings.Join(strings.Fields(line), " "))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
