package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/devguard-labs/devguard/internal/model"
	"github.com/fatih/color"
)

var severitySprint = map[string]func(a ...interface{}) string{
	model.SeverityHigh: color.New(color.FgRed).SprintFunc(),
	model.SeverityMed:  color.New(color.FgYellow).SprintFunc(),
	model.SeverityLow:  color.New(color.FgGreen).SprintFunc(),
}

// View is the user-visible projection of one scan session. It is a pure
// function of store state and serializes as-is for the web surface.
type View struct {
	Scanned    bool    `json:"scanned"`
	Score      int     `json:"score"`
	Proportion float64 `json:"proportion"`
	Label      string  `json:"label"`
	Filter     string  `json:"filter"`
	Findings   []Row   `json:"findings"`
}

// Row is one displayable finding entry.
type Row struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Heading  string `json:"heading"`
	Details  string `json:"details,omitempty"`
	Evidence string `json:"evidence,omitempty"`
}

// Build projects a stored result and its filtered findings into a view. The
// score is clamped to [0,100] before display, even when the backend returns
// an out-of-range value. A nil result yields the empty pre-scan view.
func Build(result *model.ScanResult, findings []model.Finding, filter string) View {
	if result == nil {
		return View{Filter: filter}
	}

	score := model.ClampScore(result.Score)
	v := View{
		Scanned:    true,
		Score:      score,
		Proportion: float64(score) / 100,
		Label:      model.ScoreLabel(score),
		Filter:     filter,
	}

	for _, f := range findings {
		v.Findings = append(v.Findings, Row{
			ID:       f.ID,
			Severity: f.Severity,
			Heading:  fmt.Sprintf("%s — %s", strings.ToUpper(f.Severity), f.Title),
			Details:  f.Details,
			Evidence: model.EvidenceString(f.Evidence),
		})
	}
	return v
}

// WriteText renders a view for the terminal, coloring finding headings by
// severity.
func WriteText(w io.Writer, v View) {
	if !v.Scanned {
		fmt.Fprintln(w, "Run a scan to see results.")
		return
	}

	fmt.Fprintf(w, "Security Score: %d/100 (%s)\n", v.Score, v.Label)

	if len(v.Findings) == 0 {
		if v.Filter == model.SeverityAll {
			fmt.Fprintln(w, "No active findings.")
		} else {
			fmt.Fprintln(w, "No findings for this filter.")
		}
		return
	}

	fmt.Fprintln(w, "Findings:")
	for _, row := range v.Findings {
		heading := row.Heading
		if sprint, ok := severitySprint[row.Severity]; ok {
			heading = sprint(row.Heading)
		}
		fmt.Fprintf(w, "  %s  [%s]\n", heading, row.ID)
		if row.Details != "" {
			fmt.Fprintf(w, "      %s\n", row.Details)
		}
		if row.Evidence != "" {
			for _, line := range strings.Split(row.Evidence, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}
