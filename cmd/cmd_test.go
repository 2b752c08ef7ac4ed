package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

const customersCSV = `Name,Email,Phone,Country,Age,Price
Alice, Foo@Bar.COM ,(555) 123-4567,US,30,"$1,200"
Bob,bob@x.com,555.987.6543,Germany,45,(300)
Alice, Foo@Bar.COM ,(555) 123-4567,US,30,"$1,200"
Carol,carol@x.com,n/a,U.S.A,150,450
Dan,dan@x.com,555 000 1111,United States,,n/a
Eve,eve@x.com,5551112222,France,28,500
Finn,finn@x.com,5552223333,Spain,33,520
Gus,gus@x.com,5553334444,Italy,31,480
Hal,hal@x.com,5554445555,Peru,29,510
`

// resetFlags restores every flag to its default so state does not leak
// between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(fl *pflag.Flag) {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		})
	}
	reset(c.Flags())
	reset(c.PersistentFlags())
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points HOME at a temp dir and clears provider keys.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"CLEANFORGE_PROVIDER", "CLEANFORGE_MODEL", "CLEANFORGE_API_KEY", "CLEANFORGE_BASE_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return home
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v", args)
	return out
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestProfileJSON(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)

	out := mustRun(t, "profile", path)
	var rep struct {
		QualityScore float64 `json:"quality_score"`
		Profile      struct {
			TotalRows     int                        `json:"total_rows"`
			DuplicateRows int                        `json:"duplicate_rows"`
			Columns       map[string]json.RawMessage `json:"columns"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 9, rep.Profile.TotalRows)
	assert.Equal(t, 1, rep.Profile.DuplicateRows)
	assert.Len(t, rep.Profile.Columns, 6)
	assert.Greater(t, rep.QualityScore, 0.0)
	assert.Less(t, rep.QualityScore, 100.0)
}

func TestProfileMarkdownToFile(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)
	md := filepath.Join(home, "out", "profile.md")

	out := mustRun(t, "profile", path, "--format", "markdown", "-o", md)
	assert.Contains(t, out, "Wrote profile")
	b, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(b), "File: customers.csv")
	assert.Contains(t, string(b), "[SCHEMA]")
	assert.Contains(t, string(b), "Quality score:")
}

func TestProfileEmptyDataset(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "empty.csv", "a,b\n")
	_, err := runCmd(t, "profile", path)
	require.Error(t, err)
	assert.Equal(t, "dataset has no rows or no columns; nothing to score", userMessage(err))
}

func TestCleanWritesOutputs(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)
	cleaned := filepath.Join(home, "cleaned.csv")
	report := filepath.Join(home, "report.json")

	out := mustRun(t, "clean", path, "-o", cleaned, "--report", report, "--preview-rows", "2")
	assert.Contains(t, out, "Wrote report")

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep struct {
		RowsBefore     int              `json:"rows_before"`
		RowsAfter      int              `json:"rows_after"`
		QualityBefore  *float64         `json:"quality_before"`
		QualityAfter   *float64         `json:"quality_after"`
		Improvement    *float64         `json:"improvement"`
		CleaningLog    []string         `json:"cleaning_log"`
		CleanedPreview []map[string]any `json:"cleaned_preview"`
	}
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, 9, rep.RowsBefore)
	assert.Equal(t, 7, rep.RowsAfter)
	require.NotNil(t, rep.Improvement)
	assert.Greater(t, *rep.Improvement, 0.0)
	assert.Len(t, rep.CleaningLog, 13)
	assert.Len(t, rep.CleanedPreview, 2)
	assert.Equal(t, "foo@bar.com", rep.CleanedPreview[0]["Email"])
	assert.Equal(t, "5551234567", rep.CleanedPreview[0]["Phone"])

	f, err := os.Open(cleaned)
	require.NoError(t, err)
	defer f.Close()
	ds, err := dataset.ReadCSV(f, dataset.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, ds.Rows())
	assert.Equal(t, []string{"Name", "Email", "Phone", "Country", "Age", "Price"}, ds.Names())
}

func TestCleanPrintsReport(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "people.csv", "Name,Age\nAna,30\nAna,30\nBo,41\n")
	out := mustRun(t, "clean", path)
	assert.Contains(t, out, `"rows_before": 3`)
	assert.Contains(t, out, `"rows_after": 2`)
	assert.Contains(t, out, "Removed 1 duplicate rows")
}

func TestCleanRejectsNonPositivePreviewRows(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "people.csv", "Name,Age\nAna,30\nBo,41\n")
	for _, n := range []string{"0", "-3"} {
		_, err := runCmd(t, "clean", path, "--preview-rows="+n)
		require.Error(t, err, n)
		assert.Contains(t, err.Error(), "--preview-rows must be at least 1")
	}
}

func TestSemanticPrintPrompt(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)
	out := mustRun(t, "semantic", path, "--print-prompt")
	assert.Contains(t, out, "You are a data quality AI.")
	assert.Contains(t, out, `"Name": ["Alice","Bob","Alice","Carol","Dan"]`)
}

func TestAnalyzeAgainstCompatibleServer(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "c1",
			"choices": []any{map[string]any{"message": map[string]any{
				"role":    "assistant",
				"content": "```json\n{\"Email\":{\"semantic_type\":\"Email\",\"issues_detected\":[\"mixed case\"],\"suggested_fixes\":[\"lowercase\"]}}\n```",
			}}},
			"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120},
		})
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CLEANFORGE_BASE_URL", srv.URL)

	out := mustRun(t, "--provider", "openai", "analyze", path)
	var rep struct {
		QualityScore     float64                   `json:"quality_score"`
		Profile          map[string]any            `json:"profile"`
		SemanticAnalysis map[string]map[string]any `json:"semantic_analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "Email", rep.SemanticAnalysis["Email"]["semantic_type"])
	assert.NotEmpty(t, rep.Profile)
}

func TestSemanticMissingKeyDegrades(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "customers.csv", customersCSV)
	out := mustRun(t, "semantic", path)
	var rep struct {
		SemanticAnalysis struct {
			RawOutput string `json:"raw_output"`
			Error     string `json:"error"`
		} `json:"semantic_analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep.SemanticAnalysis.Error, "API key is missing")
}

func TestConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	mustRun(t, "config", "set", "provider", "anthropic")
	mustRun(t, "config", "set", "api_key", "sk-ant-1234567890")
	_, err := os.Stat(filepath.Join(home, ".cleanforge", "config.yaml"))
	require.NoError(t, err)

	out := mustRun(t, "config", "show")
	assert.Contains(t, out, "provider: anthropic")
	assert.Contains(t, out, "model: claude-3-5-haiku-latest")
	assert.Contains(t, out, "api_key: sk-****890")
	assert.NotContains(t, out, "sk-ant-1234567890")

	_, err = runCmd(t, "config", "set", "provider", "nope")
	assert.Error(t, err)
}

func TestModels(t *testing.T) {
	isolate(t)
	out := mustRun(t, "models")
	for _, p := range []string{"groq", "openai", "openrouter", "ollama", "anthropic"} {
		assert.Contains(t, out, p)
	}
	assert.True(t, strings.HasPrefix(out, "PROVIDER"))
}

func TestBadDelimiter(t *testing.T) {
	home := isolate(t)
	path := writeCSV(t, home, "x.csv", "a\n1\n")
	_, err := runCmd(t, "--delimiter", "|", "profile", path)
	assert.Error(t, err)
}
