package agenda

import (
	"fmt"
	"strings"
)

// BareHourPolicy decides how an hour written without am/pm is read.
type BareHourPolicy int

const (
	// AfternoonBias reads bare hours 1 through 6 as PM and 7 through 12 as AM.
	// Family agendas rarely list events before 7am, so "pickup at 3" means 15:00.
	// It misreads genuine early entries such as "wake up at 5".
	AfternoonBias BareHourPolicy = iota

	// Literal keeps bare hours exactly as written (24-hour reading).
	Literal
)

// String returns the configuration name of the policy.
func (p BareHourPolicy) String() string {
	switch p {
	case AfternoonBias:
		return "afternoon"
	case Literal:
		return "literal"
	default:
		return fmt.Sprintf("BareHourPolicy(%d)", int(p))
	}
}

// ParseBareHourPolicy converts a configuration value into a policy.
// An empty value selects AfternoonBias.
func ParseBareHourPolicy(value string) (BareHourPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "afternoon":
		return AfternoonBias, nil
	case "literal":
		return Literal, nil
	default:
		return AfternoonBias, fmt.Errorf("unknown bare hour policy %q (must be 'afternoon' or 'literal')", value)
	}
}

// apply converts a bare (meridiem-less) hour according to the policy.
func (p BareHourPolicy) apply(hour int) int {
	if p == AfternoonBias && hour >= 1 && hour <= 6 {
		return hour + 12
	}
	return hour
}
