package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/docdrift/internal/model"
)

// JSONWriter outputs diff reports in JSON format.
// This format is suitable for CI pipelines and other tools.
type JSONWriter struct {
	baseWriter

	// prefix is added to the beginning of each line.
	prefix string

	// indent is the string used for each indentation level.
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent configures the JSON indentation.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint enables human-readable JSON output with 2-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a new JSONWriter that writes to w.
// By default, output is compact (no indentation).
func NewJSONWriter(w io.Writer, opts ...JSONWriterOption) *JSONWriter {
	jw := &JSONWriter{
		baseWriter: newBaseWriter(w),
	}
	for _, opt := range opts {
		opt(jw)
	}
	return jw
}

// jsonReport is the JSON document shape. Summary counts sit next to the
// raw result so consumers need not recount the sets.
type jsonReport struct {
	*model.DiffReport
	Summary jsonSummary `json:"summary"`
}

type jsonSummary struct {
	Checked   int  `json:"checked"`
	Missing   int  `json:"missing"`
	Retitled  int  `json:"retitled"`
	Unchanged int  `json:"unchanged"`
	Drift     bool `json:"drift"`
}

// Write outputs the diff report in JSON format.
func (w *JSONWriter) Write(report *model.DiffReport) (int, error) {
	if report == nil {
		return w.writeJSON(nil)
	}
	s := summarize(report)
	return w.writeJSON(jsonReport{
		DiffReport: report,
		Summary: jsonSummary{
			Checked:   s.checked,
			Missing:   s.missing,
			Retitled:  s.retitled,
			Unchanged: s.unchanged,
			Drift:     s.missing > 0 || s.retitled > 0,
		},
	})
}

// writeJSON marshals and writes the given value.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent != "" || w.prefix != "" {
		data, err = json.MarshalIndent(v, w.prefix, w.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
