package agenda

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	raw := "Monday\r\n\r\n  Dentist at 3  \n----\n___\n= = =\nok\n\n\nTeam sync 9-10:30am\n"

	got := SplitLines(raw)

	assert.Equal(t, []string{"Monday", "Dentist at 3", "Team sync 9-10:30am"}, got)
}

func TestSplitLines_DecorativeLineNeverReachesParser(t *testing.T) {
	assert.Empty(t, SplitLines("----"))
	assert.Empty(t, SplitLines("=====\n_____"))
}

func TestSplitLines_Empty(t *testing.T) {
	assert.Empty(t, SplitLines(""))
	assert.Empty(t, SplitLines("\n\r\n"))
}

func TestSplitLines_Idempotent(t *testing.T) {
	inputs := []string{
		"a\nbb\nccc\n-- \nDinner 7pm\n\n",
		"   Soccer from 4 to 5   \n=\n  x",
		"one\rtwo\r\nthree",
	}

	for _, raw := range inputs {
		first := SplitLines(raw)
		second := SplitLines(strings.Join(first, "\n"))
		assert.Equal(t, first, second, raw)

		for _, line := range first {
			assert.GreaterOrEqual(t, utf8.RuneCountInString(line), MinLineLength)
			assert.False(t, decorativeLine.MatchString(line))
			assert.Equal(t, strings.TrimSpace(line), line)
		}
	}
}
