package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/devguard-labs/devguard/internal/model"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestBuildEmptySession(t *testing.T) {
	v := Build(nil, nil, model.SeverityAll)
	assert.False(t, v.Scanned)

	var out bytes.Buffer
	WriteText(&out, v)
	assert.Contains(t, out.String(), "Run a scan to see results.")
}

func TestBuildClampsScore(t *testing.T) {
	over := Build(&model.ScanResult{Score: 150}, nil, model.SeverityAll)
	assert.Equal(t, 100, over.Score)
	assert.Equal(t, 1.0, over.Proportion)

	under := Build(&model.ScanResult{Score: -10}, nil, model.SeverityAll)
	assert.Equal(t, 0, under.Score)
	assert.Equal(t, 0.0, under.Proportion)
}

func TestBuildScoreAndLabel(t *testing.T) {
	v := Build(&model.ScanResult{Score: 42}, nil, model.SeverityAll)
	assert.Equal(t, 42, v.Score)
	assert.Equal(t, 0.42, v.Proportion)
	assert.Equal(t, "Fair", v.Label)
}

func TestBuildRows(t *testing.T) {
	findings := []model.Finding{
		{
			ID:       "f-1",
			Severity: model.SeverityHigh,
			Title:    "No auth on /users",
			Details:  "anyone can list users",
			Evidence: json.RawMessage(`{"path":"/users","auth":"none"}`),
		},
	}
	v := Build(&model.ScanResult{Score: 42, Findings: findings}, findings, model.SeverityAll)

	require.Len(t, v.Findings, 1)
	row := v.Findings[0]
	assert.Equal(t, "HIGH — No auth on /users", row.Heading)
	assert.Equal(t, "f-1", row.ID)
	assert.Contains(t, row.Evidence, `"auth": "none"`)
}

func TestWriteTextFullView(t *testing.T) {
	findings := []model.Finding{
		{ID: "auto_0", Severity: model.SeverityHigh, Title: "No auth on /users", Details: "anyone can list users"},
	}
	v := Build(&model.ScanResult{Score: 42, Findings: findings}, findings, model.SeverityAll)

	var out bytes.Buffer
	WriteText(&out, v)

	text := out.String()
	assert.Contains(t, text, "Security Score: 42/100 (Fair)")
	assert.Contains(t, text, "HIGH — No auth on /users")
	assert.Contains(t, text, "[auto_0]")
	assert.Contains(t, text, "anyone can list users")
}

func TestWriteTextEmptyStates(t *testing.T) {
	var unfiltered bytes.Buffer
	WriteText(&unfiltered, Build(&model.ScanResult{Score: 78}, nil, model.SeverityAll))
	assert.Contains(t, unfiltered.String(), "No active findings.")

	var filtered bytes.Buffer
	WriteText(&filtered, Build(&model.ScanResult{Score: 78}, nil, model.SeverityHigh))
	assert.Contains(t, filtered.String(), "No findings for this filter.")
}

func TestViewSerializesForTheBrowser(t *testing.T) {
	v := Build(&model.ScanResult{Score: 42}, nil, model.SeverityAll)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score":42`)
	assert.Contains(t, string(data), `"label":"Fair"`)
}
