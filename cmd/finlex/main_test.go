package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/finlex/pkg/finlex"
	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

const termsCSV = `term,definition,aliases
EBITDA,"Earnings before interest, taxes, depreciation, and amortization.",operating earnings
net present value,The value of future cash flows discounted to today.,npv
bond yield,,
`

func writeTerms(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.csv")
	require.NoError(t, os.WriteFile(path, []byte(termsCSV), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-format", "json", "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryOneShot(t *testing.T) {
	out, err := run(t, "", "--vocab", writeTerms(t), "query", "What", "is", "EBITDA?")
	require.NoError(t, err)
	assert.Equal(t, "**EBITDA**\n\nEarnings before interest, taxes, depreciation, and amortization.\n", out)
}

func TestQueryExplain(t *testing.T) {
	out, err := run(t, "", "--vocab", writeTerms(t), "query", "--explain", "zzzz qqqq")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, finlex.NoMatchMessage+"\n"), out)
	assert.Contains(t, out, "threshold_decision")
	assert.Contains(t, out, "no match")
}

func TestQueryInteractive(t *testing.T) {
	out, err := run(t, "what is npv\n\nbond yield\n", "--vocab", writeTerms(t), "query")
	require.NoError(t, err)
	assert.Contains(t, out, "**NET PRESENT VALUE**")
	assert.Contains(t, out, "Term found: 'bond yield' → no definition.")
	assert.NotContains(t, out, "> ")
}

func TestDefine(t *testing.T) {
	vocabPath := writeTerms(t)

	out, err := run(t, "", "--vocab", vocabPath, "define", "Operating", "Earnings")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "**EBITDA**"), out)

	_, err = run(t, "", "--vocab", vocabPath, "define", "weather")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestImportThenQueryFromStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "finlex.db")
	yamlPath := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`terms:
  - term: return on equity
    definition: Net income divided by shareholder equity.
    aliases: [roe]
`), 0o644))

	out, err := run(t, "", "import", "--db", dbPath, writeTerms(t), yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "imported 4 terms into "+dbPath+" (4 total)\n", out)

	out, err = run(t, "", "--vocab", dbPath, "--store", dbPath, "query", "explain return on equity")
	require.NoError(t, err)
	assert.Equal(t, "**RETURN ON EQUITY**\n\nNet income divided by shareholder equity.\n", out)

	out, err = run(t, "", "--vocab", dbPath, "--store", dbPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "return on equity")
	assert.Contains(t, out, "explain return on equity")
	assert.Contains(t, out, "matched")
}

func TestExportFromStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "finlex.db")
	csvPath := filepath.Join(dir, "exported.csv")

	_, err := run(t, "", "import", "--db", dbPath, writeTerms(t))
	require.NoError(t, err)

	out, err := run(t, "", "--vocab", dbPath, "export", csvPath)
	require.NoError(t, err)
	assert.Equal(t, "exported 3 terms to "+csvPath+"\n", out)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "term,definition,aliases\n"+
		"ebitda,\"Earnings before interest, taxes, depreciation, and amortization.\",operating earnings\n"+
		"net present value,The value of future cash flows discounted to today.,npv\n"+
		"bond yield,,\n", string(data))

	out, err = run(t, "", "--vocab", csvPath, "define", "npv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "**NET PRESENT VALUE**"), out)
}

func TestExportStdout(t *testing.T) {
	out, err := run(t, "", "--vocab", writeTerms(t), "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "terms:\n  - term: ebitda\n"), out)
	assert.Contains(t, out, "aliases:\n      - operating earnings")

	out, err = run(t, "", "--vocab", writeTerms(t), "export", "--format", "jsonl")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, `{"term":"bond yield","definition":""}`)

	_, err = run(t, "", "--vocab", writeTerms(t), "export", filepath.Join(t.TempDir(), "out.txt"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestImportRequiresDatabase(t *testing.T) {
	_, err := run(t, "", "import", writeTerms(t))
	assert.Error(t, err)
}

func TestConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "finlex.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[vocabulary]\npath = \"missing.csv\"\n"), 0o644))

	_, err := run(t, "", "--config", cfgPath, "query", "ebitda")
	assert.Error(t, err)

	out, err := run(t, "", "--config", cfgPath, "--vocab", writeTerms(t), "query", "ebitda")
	require.NoError(t, err)
	assert.Contains(t, out, "**EBITDA**")
}

func TestQuerySampleDictionary(t *testing.T) {
	vocabPath := filepath.Join("..", "..", "testdata", "terms.csv")

	tests := []struct {
		question string
		want     string
	}{
		{"define roi", "**RETURN ON INVESTMENT**\n\nGain from an investment relative to its cost.\n"},
		{"whats a p/e ratio", "**PRICE TO EARNINGS RATIO**\n\nShare price divided by earnings per share.\n"},
		{"tell me about dividends", "Term found: 'dividend' → no definition.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			out, err := run(t, "", "--vocab", vocabPath, "query", tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
