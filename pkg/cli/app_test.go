package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/nanotox/pkg/data"
	"github.com/mchmarny/nanotox/pkg/logging"
	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/mchmarny/nanotox/pkg/toxicity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	code := m.Run()
	os.Exit(code)
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	defer func() { out = prev }()

	err := newApp().Run(t.Context(), append([]string{appName}, args...))
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0600))
	return p
}

func TestApp_Score(t *testing.T) {
	home := t.TempDir()

	output, err := runApp(t, "--home", home, "score",
		"--particle", "Element1:0.49:50",
		"--particle", "Element2:0.98:50")
	require.NoError(t, err)

	var rep score.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.True(t, rep.Scored)
	assert.InDelta(t, 0.1, rep.FinalToxicity, 1e-9)
	assert.Equal(t, score.SeverityNone, rep.Severity)
	assert.Empty(t, rep.Errors)

	_, err = os.Stat(filepath.Join(home, "config.yaml"))
	assert.NoError(t, err)
}

func TestApp_ScoreRejected(t *testing.T) {
	output, err := runApp(t, "--home", t.TempDir(), "score", "-p", "Element1:0.49:60")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRejected))

	var rep score.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.False(t, rep.Scored)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, score.KindPercentageSum, rep.Errors[0].Kind)
}

func TestApp_ScoreYAML(t *testing.T) {
	output, err := runApp(t, "--home", t.TempDir(), "--format", "yaml", "score", "-p", "Element3:250:100")
	require.NoError(t, err)
	assert.Contains(t, output, "severityBand: severe")
	assert.Contains(t, output, "normalizedToxicity: 10")
}

func TestApp_UnsupportedFormat(t *testing.T) {
	output, err := runApp(t, "--home", t.TempDir(), "--format", "xml", "score", "-p", "Element1:0.49:100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output format "xml"`)
	assert.Empty(t, output)

	output, err = runApp(t, "--home", t.TempDir(), "--format", "yml", "score", "-p", "Element1:0.49:100")
	require.NoError(t, err)
	assert.Contains(t, output, "severityBand: none")
}

func TestApp_ScoreFile(t *testing.T) {
	dir := t.TempDir()
	req := writeFile(t, dir, "req.json",
		`{"constituents": [{"element": "Element2", "concentration": 250, "percentage": 100}]}`)

	output, err := runApp(t, "--home", dir, "score", "--file", req)
	require.NoError(t, err)

	var rep score.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.InDelta(t, 25.6, rep.FinalToxicity, 1e-9)
	assert.Equal(t, 10.0, rep.NormalizedToxicity)
}

func TestApp_TableImportThenScoreFromDB(t *testing.T) {
	home := t.TempDir()
	csvPath := writeFile(t, home, "custom.csv", "Element,1,2\nAg,3.5,\nZn,0.5,1\n")

	output, err := runApp(t, "--home", home, "table", "import", "--from", csvPath)
	require.NoError(t, err)

	var res data.ImportResult
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.Equal(t, 2, res.Elements)
	assert.Equal(t, 3, res.Entries)

	output, err = runApp(t, "--home", home, "table", "info")
	require.NoError(t, err)
	var info data.TableInfo
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, csvPath, info.Source)
	assert.Equal(t, int64(3), info.Entries)

	output, err = runApp(t, "--home", home, "--table", "db", "score", "-p", "Ag:1:100")
	require.NoError(t, err)
	var rep score.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.InDelta(t, 3.5, rep.FinalToxicity, 1e-9)
	assert.Equal(t, score.SeverityLow, rep.Severity)

	// the gap stays a gap
	output, err = runApp(t, "--home", home, "--table", "db", "score", "-p", "Ag:2:100")
	require.ErrorIs(t, err, errRejected)
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, score.KindNotFound, rep.Errors[0].Kind)
}

func TestApp_TableListFromFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "table.yaml", "elements:\n  - name: Zn\n    values: {1: 2, 5: 4}\n")

	output, err := runApp(t, "--home", dir, "--table", yamlPath, "table", "list")
	require.NoError(t, err)

	var sum TableSummary
	require.NoError(t, json.Unmarshal([]byte(output), &sum))
	assert.Equal(t, yamlPath, sum.Source)
	assert.Equal(t, []string{"Zn"}, sum.Elements)
	assert.Equal(t, []float64{1, 5}, sum.Concentrations)
}

func TestApp_TableShow(t *testing.T) {
	output, err := runApp(t, "--home", t.TempDir(), "table", "show")
	require.NoError(t, err)

	var entries []toxicity.Entry
	require.NoError(t, json.Unmarshal([]byte(output), &entries))
	assert.Len(t, entries, 30)
	assert.Equal(t, toxicity.Entry{Element: "Element1", Concentration: 0.49, Value: 0.1}, entries[0])
}

func TestApp_BadTableSource(t *testing.T) {
	dir := t.TempDir()
	_, err := runApp(t, "--home", dir, "--table", filepath.Join(dir, "missing.csv"), "table", "list")

	var le *toxicity.DataLoadError
	assert.ErrorAs(t, err, &le)
}

func TestApp_SeverityFromConfig(t *testing.T) {
	home := t.TempDir()
	writeFile(t, home, "config.yaml", "severity:\n  thresholds: [0.01, 0.02, 0.03, 0.04]\n")

	output, err := runApp(t, "--home", home, "score", "-p", "Element1:0.49:100")
	require.NoError(t, err)

	var rep score.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.Equal(t, score.SeveritySevere, rep.Severity)
}
