package models

import (
	"fmt"
	"strings"
)

// Period is one of the daily check-in slots.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// AllPeriods lists the periods in display order.
var AllPeriods = []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}

// ParsePeriod normalizes user input into a Period.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// Title returns the capitalized period name used in badge names.
func (p Period) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}
