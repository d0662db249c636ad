package agenda

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinLineLength is the shortest trimmed line kept by SplitLines.
const MinLineLength = 3

var (
	lineBreaks     = regexp.MustCompile(`[\r\n]+`)
	decorativeLine = regexp.MustCompile(`^[-_=\s]+$`)
)

// SplitLines breaks recognized text into candidate agenda lines.
// Lines are trimmed; separator rules ("----", "====") and fragments shorter
// than MinLineLength characters are dropped.
func SplitLines(raw string) []string {
	var lines []string
	for _, line := range lineBreaks.Split(raw, -1) {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < MinLineLength {
			continue
		}
		if decorativeLine.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
