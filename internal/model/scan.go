package model

import (
	"encoding/json"
	"fmt"
)

// Severity values reported by the backend. SeverityAll is a filter sentinel
// and never appears on a stored finding.
const (
	SeverityHigh = "high"
	SeverityMed  = "med"
	SeverityLow  = "low"
	SeverityAll  = "all"
)

// Finding represents one reported issue from a scan.
type Finding struct {
	ID       string          `json:"id,omitempty"`
	Severity string          `json:"severity,omitempty"`
	Title    string          `json:"title,omitempty"`
	Details  string          `json:"details,omitempty"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
}

// ScanResult is the backend's complete response to a scan or apply call.
type ScanResult struct {
	Score    int       `json:"score"`
	Findings []Finding `json:"findings"`
}

// SeverityRank maps a severity to its sort weight. Unknown or missing
// severities rank lowest.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityHigh:
		return 3
	case SeverityMed:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ValidFilter reports whether s is a usable severity filter value.
func ValidFilter(s string) bool {
	switch s {
	case SeverityAll, SeverityHigh, SeverityMed, SeverityLow:
		return true
	}
	return false
}

// ClampScore bounds a backend score to the displayable [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreLabel returns the qualitative label for a score.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// Normalize assigns synthetic identifiers and default titles so every finding
// stays addressable for apply requests. The input slice is not mutated.
func Normalize(findings []Finding) []Finding {
	out := make([]Finding, len(findings))
	for i, f := range findings {
		if f.ID == "" {
			f.ID = fmt.Sprintf("auto_%d", i)
		}
		if f.Title == "" {
			f.Title = fmt.Sprintf("Finding %d", i+1)
		}
		out[i] = f
	}
	return out
}

// EvidenceString renders an evidence payload verbatim: pretty-printed when it
// is structurable JSON, the raw text otherwise.
func EvidenceString(evidence json.RawMessage) string {
	if len(evidence) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(evidence, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(pretty)
		}
	}
	return string(evidence)
}
