package model

// SiteNode is a page in a site tree.
//
// Title and Children are always present: an unvisited page has an empty
// title and a non-nil, empty child list, which keeps the JSON form stable
// ({url, title, children, depth}) and spares traversals nil checks.
type SiteNode struct {
	// URL is absolute while crawling and origin-relative once the tree
	// has been prepared for persistence with Relativize.
	URL string `json:"url"`

	// Title is the rendered page heading. Empty until the page is fetched.
	Title string `json:"title"`

	// Children are ordered by discovery on the parent page.
	Children []*SiteNode `json:"children"`

	// Depth is the distance in hops from the root. The root has depth 0.
	Depth int `json:"depth"`
}

// NewSiteNode creates a node with no title and no children.
func NewSiteNode(url string, depth int) *SiteNode {
	return &SiteNode{
		URL:      url,
		Children: make([]*SiteNode, 0),
		Depth:    depth,
	}
}

// AddChild appends a new child one level below n and returns it.
func (n *SiteNode) AddChild(url string) *SiteNode {
	child := NewSiteNode(url, n.Depth+1)
	n.Children = append(n.Children, child)
	return child
}

// Walk visits n and its descendants in pre-order.
// Returning false from fn prunes the subtree below the current node.
func (n *SiteNode) Walk(fn func(*SiteNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *SiteNode) Count() int {
	count := 0
	n.Walk(func(*SiteNode) bool {
		count++
		return true
	})
	return count
}

// MaxDepth returns the largest depth found in the tree rooted at n,
// or -1 for a nil tree.
func (n *SiteNode) MaxDepth() int {
	deepest := -1
	n.Walk(func(node *SiteNode) bool {
		if node.Depth > deepest {
			deepest = node.Depth
		}
		return true
	})
	return deepest
}

// Equal reports whether two trees have the same urls, titles, depths and
// child order.
func (n *SiteNode) Equal(other *SiteNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.URL != other.URL || n.Title != other.Title || n.Depth != other.Depth {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree rooted at n.
func (n *SiteNode) Clone() *SiteNode {
	if n == nil {
		return nil
	}
	c := &SiteNode{
		URL:      n.URL,
		Title:    n.Title,
		Children: make([]*SiteNode, 0, len(n.Children)),
		Depth:    n.Depth,
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// EnsureChildren replaces nil child lists with empty ones throughout the
// tree. Decoded documents may omit the children field entirely.
func (n *SiteNode) EnsureChildren() {
	n.Walk(func(node *SiteNode) bool {
		if node.Children == nil {
			node.Children = make([]*SiteNode, 0)
		}
		return true
	})
}
