package model

import "testing"

func sampleTree() *SiteNode {
	root := NewSiteNode("https://docs.example/", 0)
	root.Title = "Home"
	guide := root.AddChild("https://docs.example/guide")
	guide.Title = "Guide"
	install := guide.AddChild("https://docs.example/guide/install")
	install.Title = "Install"
	api := root.AddChild("https://docs.example/api")
	api.Title = "API"
	return root
}

func TestSiteNode(t *testing.T) {
	t.Parallel()

	t.Run("new node has empty children", func(t *testing.T) {
		t.Parallel()

		n := NewSiteNode("https://docs.example/", 0)
		if n.Children == nil {
			t.Fatal("expected non-nil children")
		}
		if len(n.Children) != 0 {
			t.Errorf("expected no children, got %d", len(n.Children))
		}
		if n.Title != "" {
			t.Errorf("expected empty title, got %q", n.Title)
		}
	})

	t.Run("AddChild increments depth", func(t *testing.T) {
		t.Parallel()

		root := NewSiteNode("https://docs.example/", 0)
		child := root.AddChild("https://docs.example/a")
		grandchild := child.AddChild("https://docs.example/a/b")
		if child.Depth != 1 || grandchild.Depth != 2 {
			t.Errorf("unexpected depths %d, %d", child.Depth, grandchild.Depth)
		}
		if len(root.Children) != 1 || root.Children[0] != child {
			t.Error("child not attached to root")
		}
	})

	t.Run("Walk is pre-order", func(t *testing.T) {
		t.Parallel()

		var got []string
		sampleTree().Walk(func(n *SiteNode) bool {
			got = append(got, n.Title)
			return true
		})
		want := []string{"Home", "Guide", "Install", "API"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("Walk prunes subtree", func(t *testing.T) {
		t.Parallel()

		count := 0
		sampleTree().Walk(func(n *SiteNode) bool {
			count++
			return n.Title != "Guide"
		})
		if count != 3 {
			t.Errorf("expected 3 visited nodes, got %d", count)
		}
	})

	t.Run("Count and MaxDepth", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		if got := tree.Count(); got != 4 {
			t.Errorf("Count() = %d, want 4", got)
		}
		if got := tree.MaxDepth(); got != 2 {
			t.Errorf("MaxDepth() = %d, want 2", got)
		}
		var nilTree *SiteNode
		if got := nilTree.MaxDepth(); got != -1 {
			t.Errorf("nil MaxDepth() = %d, want -1", got)
		}
	})

	t.Run("Clone is deep", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		clone := tree.Clone()
		if !tree.Equal(clone) {
			t.Fatal("clone differs from original")
		}
		clone.Children[0].Title = "Changed"
		if tree.Children[0].Title != "Guide" {
			t.Error("mutating clone changed original")
		}
		if tree.Equal(clone) {
			t.Error("expected trees to differ after mutation")
		}
	})

	t.Run("Equal compares child order", func(t *testing.T) {
		t.Parallel()

		a := sampleTree()
		b := sampleTree()
		b.Children[0], b.Children[1] = b.Children[1], b.Children[0]
		if a.Equal(b) {
			t.Error("expected reordered children to be unequal")
		}
	})

	t.Run("EnsureChildren fills nil lists", func(t *testing.T) {
		t.Parallel()

		root := &SiteNode{URL: "/", Children: []*SiteNode{{URL: "/a", Depth: 1}}}
		root.EnsureChildren()
		if root.Children[0].Children == nil {
			t.Error("expected child list to be initialized")
		}
	})
}
