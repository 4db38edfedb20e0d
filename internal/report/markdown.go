package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docdrift/internal/model"
)

// MarkdownWriter outputs diff reports in Markdown format.
// This format is designed for pull request comments and wiki pages.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us GitHub tables, alerts and mermaid charts
// without hand-escaping.
type MarkdownWriter struct {
	baseWriter

	// chart enables the mermaid pie chart of page outcomes.
	chart bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithChart enables the mermaid pie chart in the summary section.
func WithChart(enabled bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.chart = enabled
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the diff report in Markdown format.
func (w *MarkdownWriter) Write(report *model.DiffReport) (int, error) {
	if report == nil {
		return 0, nil
	}
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeMissing(md, report.Result)
	w.writeRetitled(md, report.Result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.DiffReport) {
	md.H1("Documentation Drift Report")
	md.PlainText("")

	rows := [][]string{
		{"Base URL", "`" + report.BaseURL + "`"},
	}
	if report.SnapshotPath != "" {
		rows = append(rows, []string{"Snapshot", "`" + report.SnapshotPath + "`"})
	}
	if !report.CheckedAt.IsZero() {
		rows = append(rows, []string{"Checked At", report.CheckedAt.Format("2006-01-02 15:04:05 MST")})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes page counts, the optional chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.DiffReport) {
	s := summarize(report)

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Pages"},
		Rows: [][]string{
			{"Unchanged", strconv.Itoa(s.unchanged)},
			{"Missing", strconv.Itoa(s.missing)},
			{"Retitled", strconv.Itoa(s.retitled)},
			{"**Checked**", "**" + strconv.Itoa(s.checked) + "**"},
		},
	})
	md.PlainText("")

	if w.chart && s.checked > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.missing > 0:
		md.Cautionf("%d page(s) from the snapshot are gone. Links to them are now broken.", s.missing)
	case s.retitled > 0:
		md.Warningf("%d page(s) changed their title since the snapshot.", s.retitled)
	default:
		md.Tip("Every page in the snapshot is still served with its recorded title.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Status"),
		piechart.WithShowData(true),
	)
	if s.unchanged > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(s.unchanged))
	}
	if s.missing > 0 {
		chart.LabelAndIntValue("Missing", uint64(s.missing))
	}
	if s.retitled > 0 {
		chart.LabelAndIntValue("Retitled", uint64(s.retitled))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeMissing(md *markdown.Markdown, r *model.DiffResult) {
	md.H2("Missing Pages")
	md.PlainText("")
	if r == nil || r.MissingPages.Len() == 0 {
		md.PlainText("No missing pages.")
		md.PlainText("")
		return
	}

	urls := r.MissingPages.Sorted()
	items := make([]string, len(urls))
	for i, u := range urls {
		items[i] = "`" + u + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeRetitled(md *markdown.Markdown, r *model.DiffResult) {
	md.H2("Retitled Pages")
	md.PlainText("")
	if r == nil || r.RetitledPages.Len() == 0 {
		md.PlainText("No retitled pages.")
		md.PlainText("")
		return
	}

	urls := r.RetitledPages.Sorted()
	rows := make([][]string, len(urls))
	for i, u := range urls {
		recorded, live := "-", "-"
		if tc, ok := titleChange(r, u); ok {
			recorded = orDash(tc.Recorded)
			live = orDash(tc.Live)
		}
		rows[i] = []string{"`" + u + "`", recorded, live}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Recorded Title", "Live Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docdrift](https://github.com/nao1215/docdrift)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
