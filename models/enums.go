package models

import (
	"encoding/json"
	"fmt"
)

// --- Confidence ---

// Confidence is the coarse reliability tier of a derived value. It is driven by
// sample size and ordered none < low < medium < high.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = map[Confidence]string{
	ConfidenceNone:   "none",
	ConfidenceLow:    "low",
	ConfidenceMedium: "medium",
	ConfidenceHigh:   "high",
}

func (c Confidence) String() string {
	if name, ok := confidenceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// AtLeast reports whether c is the same tier as min or better.
func (c Confidence) AtLeast(min Confidence) bool {
	return c >= min
}

// ParseConfidence converts a tier name into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	for c, name := range confidenceNames {
		if name == s {
			return c, nil
		}
	}
	return ConfidenceNone, fmt.Errorf("unknown confidence %q", s)
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	name, ok := confidenceNames[c]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unranked confidence %d", int(c))
	}
	return json.Marshal(name)
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// --- Severity ---

// Severity ranks a signal. Lower values sort first: critical, high, medium, low.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

var severityNames = map[Severity]string{
	SeverityCritical: "critical",
	SeverityHigh:     "high",
	SeverityMedium:   "medium",
	SeverityLow:      "low",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	for sev, name := range severityNames {
		if name == s {
			return sev, nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	name, ok := severityNames[s]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unranked severity %d", int(s))
	}
	return json.Marshal(name)
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// --- Source status ---

// SourceStatus tells consumers whether upstream data was actually read.
type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceUnavailable SourceStatus = "unavailable"
	SourceError       SourceStatus = "error"
)

// --- Trend direction ---

type TrendDirection string

const (
	TrendInsufficientData TrendDirection = "insufficient_data"
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendNoClearTrend     TrendDirection = "no_clear_trend"
)

// --- Velocity pattern ---

// VelocityPattern classifies current velocity against a prior period.
type VelocityPattern string

const (
	PatternAccelerating VelocityPattern = "accelerating"
	PatternDecelerating VelocityPattern = "decelerating"
	PatternSteady       VelocityPattern = "steady"
	PatternFlat         VelocityPattern = "flat"
	PatternNewDemand    VelocityPattern = "new_demand"
	PatternNoDemand     VelocityPattern = "no_demand"
)
