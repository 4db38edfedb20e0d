package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/docdrift/internal/model"
)

// Encode writes tree as indented JSON followed by a newline.
func Encode(w io.Writer, tree *model.SiteNode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a tree. The reader must hold exactly one JSON document.
// Every node must carry a url, the root sits at depth 0 and each child one
// level below its parent. Missing children become empty lists.
func Decode(r io.Reader) (*model.SiteNode, error) {
	var root *model.SiteNode
	dec := json.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrSnapshotParse)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document is null", ErrSnapshotParse)
	}
	if root.Depth != 0 {
		return nil, fmt.Errorf("%w: root depth is %d", ErrSnapshotParse, root.Depth)
	}
	if err := validate(root); err != nil {
		return nil, err
	}
	root.EnsureChildren()
	return root, nil
}

func validate(n *model.SiteNode) error {
	if n.URL == "" {
		return fmt.Errorf("%w: node at depth %d has no url", ErrSnapshotParse, n.Depth)
	}
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("%w: null child of %s", ErrSnapshotParse, n.URL)
		}
		if c.Depth != n.Depth+1 {
			return fmt.Errorf("%w: %s has depth %d under %s at depth %d",
				ErrSnapshotParse, c.URL, c.Depth, n.URL, n.Depth)
		}
		if err := validate(c); err != nil {
			return err
		}
	}
	return nil
}
