package report

import (
	"io"

	"github.com/nao1215/docdrift/internal/model"
)

// Writer defines the interface for diff report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or CI logs
// with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.DiffReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.DiffReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for all writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(w io.Writer) baseWriter {
	return baseWriter{output: w}
}

// summary holds the page counts every format presents.
type summary struct {
	checked   int
	missing   int
	retitled  int
	unchanged int
}

// summarize computes page counts for a report. A nil result counts as empty.
func summarize(report *model.DiffReport) summary {
	if report == nil || report.Result == nil {
		return summary{}
	}
	r := report.Result
	s := summary{
		checked:  r.PagesChecked,
		missing:  r.MissingPages.Len(),
		retitled: r.RetitledPages.Len(),
	}
	s.unchanged = max(s.checked-s.missing-s.retitled, 0)
	return s
}

// titleChange returns the recorded title change for url, if any.
func titleChange(r *model.DiffResult, url string) (model.TitleChange, bool) {
	if r == nil || r.TitleChanges == nil {
		return model.TitleChange{}, false
	}
	tc, ok := r.TitleChanges[url]
	return tc, ok
}
