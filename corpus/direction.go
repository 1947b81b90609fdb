package corpus

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Direction is the normalized form of a document's inc_out marker.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionInbound
	DirectionOutbound
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the direction by name.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ParseDirection converts a filter value ("inbound", "outbound", or empty)
// into a Direction. Raw inc_out values go through a lexicon instead.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionUnknown, nil
	case "inbound", "incoming", "in":
		return DirectionInbound, nil
	case "outbound", "outgoing", "out":
		return DirectionOutbound, nil
	default:
		return DirectionUnknown, fmt.Errorf("invalid direction %q (valid: inbound, outbound)", s)
	}
}

// Severity is the normalized bucket of a document's severity_rate.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseSeverity converts a filter value ("low", "medium", "high", or empty)
// into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SeverityUnknown, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return SeverityUnknown, fmt.Errorf("invalid severity %q (valid: low, medium, high)", s)
	}
}

// SeverityNumberPattern matches a trimmed numeric severity_rate such as
// "4" or "4,5". The SQL store uses the same pattern.
const SeverityNumberPattern = `^[0-9]+([.,][0-9]+)?$`

var severityNumber = regexp.MustCompile(SeverityNumberPattern)

// ParseSeverityNumber reads a numeric severity_rate. A decimal comma is
// accepted.
func ParseSeverityNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if !severityNumber.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SeverityBand is the numeric range of severity_rate values that fall into
// one Severity. Max is exclusive and zero means unbounded.
type SeverityBand struct {
	Min     float64
	MinOpen bool
	Max     float64
}

// Contains reports whether v lies in the band.
func (b SeverityBand) Contains(v float64) bool {
	if v < b.Min || (b.MinOpen && v == b.Min) {
		return false
	}
	return b.Max == 0 || v < b.Max
}
