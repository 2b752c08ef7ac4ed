// Package semantic asks a language model what each column means and what
// looks wrong with it. Failures never propagate: a bad or missing reply
// degrades to the raw text.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/ai"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/logging"
)

const (
	DefaultSampleSize = 5
	systemPrompt      = "You are a strict JSON generator."
)

// ColumnInsight is the model's verdict on one column.
type ColumnInsight struct {
	SemanticType   string   `json:"semantic_type"`
	IssuesDetected []string `json:"issues_detected"`
	SuggestedFixes []string `json:"suggested_fixes"`
}

// Result is either a parsed per-column map or the raw reply.
type Result struct {
	Columns   map[string]ColumnInsight
	RawOutput string
	Err       string
	Model     string
	Usage     ai.Usage
}

// Parsed reports whether the reply decoded into per-column insights.
func (r Result) Parsed() bool { return r.Columns != nil }

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Columns != nil {
		return json.Marshal(r.Columns)
	}
	out := struct {
		RawOutput string `json:"raw_output"`
		Error     string `json:"error,omitempty"`
	}{r.RawOutput, r.Err}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if raw, ok := probe["raw_output"]; ok {
		*r = Result{}
		if err := json.Unmarshal(raw, &r.RawOutput); err != nil {
			return err
		}
		if e, ok := probe["error"]; ok {
			return json.Unmarshal(e, &r.Err)
		}
		return nil
	}
	cols := make(map[string]ColumnInsight, len(probe))
	if err := json.Unmarshal(b, &cols); err != nil {
		return err
	}
	*r = Result{Columns: cols}
	return nil
}

// Analyzer samples a dataset and asks Runtime to describe each column.
type Analyzer struct {
	Runtime     ai.Runtime
	Model       string
	SampleSize  int
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// Analyze never returns an error; see Result.Err for transport failures.
func (a *Analyzer) Analyze(ctx context.Context, ds *dataset.Dataset) Result {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("semantic")
	res := Result{Model: a.Model}
	if a.Runtime == nil {
		res.Err = "no language model runtime configured"
		return res
	}
	if ds == nil {
		res.Err = "no dataset"
		return res
	}
	n := a.SampleSize
	if n <= 0 {
		n = DefaultSampleSize
	}
	prompt, err := BuildPrompt(ds, n)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	resp, err := a.Runtime.Generate(ctx, ai.GenerateRequest{
		Model: a.Model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	})
	if err != nil {
		logger.Warn("semantic analysis failed", zap.String("error", logging.RedactError(err)))
		res.Err = logging.RedactError(err)
		return res
	}
	res.Usage = resp.Usage
	text := resp.Text()
	cols, err := ParseReply(text)
	if err != nil {
		logger.Debug("reply was not valid JSON", zap.Error(err), zap.Int("length", len(text)))
		res.RawOutput = text
		return res
	}
	res.Columns = cols
	logger.Debug("semantic analysis complete", zap.Int("columns", len(cols)), zap.Int("total_tokens", resp.Usage.TotalTokens))
	return res
}

// Samples returns the first n non-missing values of each column in
// dataset order.
func Samples(ds *dataset.Dataset, n int) ([]string, [][]string) {
	names := ds.Names()
	values := make([][]string, len(names))
	for ci := range names {
		col := ds.At(ci)
		vals := make([]string, 0, n)
		for i := 0; i < col.Len() && len(vals) < n; i++ {
			if !col.Cells[i].Valid {
				continue
			}
			vals = append(vals, col.Format(i))
		}
		values[ci] = vals
	}
	return names, values
}

// BuildPrompt renders the user prompt with the samples as a JSON object
// whose keys keep column order.
func BuildPrompt(ds *dataset.Dataset, n int) (string, error) {
	names, values := Samples(ds, n)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := json.Marshal(name)
		if err != nil {
			return "", err
		}
		v, err := json.Marshal(values[i])
		if err != nil {
			return "", err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')

	var b strings.Builder
	b.WriteString("You are a data quality AI.\n\n")
	b.WriteString("Given the dataset column samples below:\n\n")
	b.WriteString(buf.String())
	b.WriteString("\n\nFor each column:\n")
	b.WriteString("1. Identify semantic meaning (e.g., Email, Phone, Age, Country, Salary).\n")
	b.WriteString("2. Detect potential issues.\n")
	b.WriteString("3. Suggest cleaning improvements.\n\n")
	b.WriteString("Return ONLY valid JSON in this format:\n\n")
	b.WriteString("{\n  \"ColumnName\": {\n      \"semantic_type\": \"\",\n      \"issues_detected\": [],\n      \"suggested_fixes\": []\n  }\n}\n\n")
	b.WriteString("Do not include explanations.\nReturn JSON only.\n")
	return b.String(), nil
}

var errNoJSON = errors.New("no JSON object in reply")

// ParseReply extracts and decodes the per-column object from a model reply.
func ParseReply(text string) (map[string]ColumnInsight, error) {
	obj, ok := ExtractJSON(text)
	if !ok {
		return nil, errNoJSON
	}
	var cols map[string]ColumnInsight
	if err := json.Unmarshal([]byte(obj), &cols); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if cols == nil {
		return nil, errNoJSON
	}
	return cols, nil
}

// Names returns the analysed column names sorted.
func (r Result) Names() []string {
	out := make([]string, 0, len(r.Columns))
	for k := range r.Columns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
