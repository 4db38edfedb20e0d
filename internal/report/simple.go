package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docdrift/internal/model"
)

// SimpleWriter outputs diff reports in a human-readable text format.
// This is the default output format for terminal display.
//
// Design decision: The output lists the raw URLs one per line so it can
// be piped into grep or copied straight into a redirect map.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether to show sections with no entries.
	showEmpty bool

	// verbose enables the old and new titles of retitled pages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures whether to show sections with no entries.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables title details for retitled pages.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a new SimpleWriter that writes to w.
func NewSimpleWriter(w io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	sw := &SimpleWriter{
		baseWriter: newBaseWriter(w),
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Write outputs the diff report in text format.
func (w *SimpleWriter) Write(report *model.DiffReport) (int, error) {
	if report == nil {
		return 0, nil
	}

	var sb strings.Builder
	w.writeHeader(&sb, report)
	w.writeMissing(&sb, report.Result)
	w.writeRetitled(&sb, report.Result)
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.DiffReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("DOCDRIFT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.SnapshotPath != "" {
		fmt.Fprintf(sb, "Snapshot:   %s\n", report.SnapshotPath)
	}
	fmt.Fprintf(sb, "Base URL:   %s\n", report.BaseURL)
	if !report.CheckedAt.IsZero() {
		fmt.Fprintf(sb, "Checked at: %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	}

	s := summarize(report)
	fmt.Fprintf(sb, "Pages:      %d checked, %d missing, %d retitled\n\n", s.checked, s.missing, s.retitled)
}

func (w *SimpleWriter) writeMissing(sb *strings.Builder, r *model.DiffResult) {
	if r == nil || (r.MissingPages.Len() == 0 && !w.showEmpty) {
		return
	}
	writeSection(sb, "MISSING PAGES")
	if r.MissingPages.Len() == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, u := range r.MissingPages.Sorted() {
		fmt.Fprintf(sb, "  [-] %s\n", u)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRetitled(sb *strings.Builder, r *model.DiffResult) {
	if r == nil || (r.RetitledPages.Len() == 0 && !w.showEmpty) {
		return
	}
	writeSection(sb, "RETITLED PAGES")
	if r.RetitledPages.Len() == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, u := range r.RetitledPages.Sorted() {
		fmt.Fprintf(sb, "  [~] %s\n", u)
		if !w.verbose {
			continue
		}
		if tc, ok := titleChange(r, u); ok {
			fmt.Fprintf(sb, "      was: %q\n", tc.Recorded)
			fmt.Fprintf(sb, "      now: %q\n", tc.Live)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.DiffReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if report.Result != nil && report.Result.HasDrift() {
		sb.WriteString("Result: drift detected\n")
	} else {
		sb.WriteString("Result: no drift\n")
	}
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
}
