package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docdrift/internal/model"
)

// TreeWriter prints a snapshot tree as an indented outline, one page per
// line, in the order the crawl discovered them.
type TreeWriter struct {
	baseWriter

	// maxDepth limits the printed depth; negative prints everything.
	maxDepth int
}

// TreeWriterOption configures a TreeWriter.
type TreeWriterOption func(*TreeWriter)

// WithMaxDepth limits the outline to nodes at most depth levels deep.
func WithMaxDepth(depth int) TreeWriterOption {
	return func(w *TreeWriter) {
		w.maxDepth = depth
	}
}

// NewTreeWriter creates a TreeWriter that outputs to w.
func NewTreeWriter(w io.Writer, opts ...TreeWriterOption) *TreeWriter {
	tw := &TreeWriter{
		baseWriter: newBaseWriter(w),
		maxDepth:   -1,
	}
	for _, opt := range opts {
		opt(tw)
	}
	return tw
}

// Write outputs root and its descendants.
func (w *TreeWriter) Write(root *model.SiteNode) (int, error) {
	if root == nil {
		return 0, nil
	}

	var sb strings.Builder
	w.writeNode(&sb, root, 0)
	fmt.Fprintf(&sb, "\n%d page(s), max depth %d\n", root.Count(), root.MaxDepth())

	return w.output.Write([]byte(sb.String()))
}

func (w *TreeWriter) writeNode(sb *strings.Builder, n *model.SiteNode, level int) {
	if w.maxDepth >= 0 && level > w.maxDepth {
		return
	}
	sb.WriteString(strings.Repeat("  ", level))
	sb.WriteString(n.URL)
	if n.Title != "" {
		fmt.Fprintf(sb, "  %q", n.Title)
	}
	sb.WriteString("\n")
	for _, c := range n.Children {
		w.writeNode(sb, c, level+1)
	}
}
