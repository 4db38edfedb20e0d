package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/fetcher/fetchertest"
	"github.com/nao1215/docdrift/internal/snapshot"
)

// docSite serves a mutable set of documentation pages. Unknown paths 404.
type docSite struct {
	mu    sync.Mutex
	pages map[string]string
}

func newDocSite() *docSite {
	return &docSite{pages: map[string]string{
		"/":  fetchertest.DocPage("Home", "/a", "Alpha", "/b", "Beta"),
		"/a": fetchertest.DocPage("Alpha", "/", "Home"),
		"/b": fetchertest.DocPage("Beta"),
	}}
}

func (s *docSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, ok := s.pages[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, body) //nolint:errcheck // test server
}

func (s *docSite) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = body
}

func (s *docSite) remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, path)
}

// driftEnv holds the isolated directories of one scenario.
type driftEnv struct {
	site    *docSite
	server  *httptest.Server
	dbDir   string
	outDir  string
	cfgPath string
}

func newDriftEnv(t *testing.T) *driftEnv {
	t.Helper()

	site := newDocSite()
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".docdrift")
	if err := os.WriteFile(cfgPath, []byte("defaults:\n  titleSelector: \"header h1\"\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &driftEnv{
		site:    site,
		server:  server,
		dbDir:   filepath.Join(dir, "db"),
		outDir:  filepath.Join(dir, "snapshots"),
		cfgPath: cfgPath,
	}
}

// args appends the flags that isolate a command from the user's machine.
func (e *driftEnv) args(args ...string) []string {
	return append(args, "--db-dir", e.dbDir, "-c", e.cfgPath, "-r", "0")
}

func (e *driftEnv) snapshot(t *testing.T, extra ...string) string {
	t.Helper()

	args := e.args(append([]string{"snapshot", e.server.URL, "-o", e.outDir, "--revision", "r1"}, extra...)...)
	out, stderr, err := executeCmd(t, args...)
	if err != nil {
		t.Fatalf("snapshot failed: %v\n%s", err, stderr)
	}
	return strings.TrimSpace(out)
}

type jsonDiff struct {
	Result struct {
		MissingPages  []string `json:"missing_pages"`
		RetitledPages []string `json:"retitled_pages"`
		TitleChanges  map[string]struct {
			Recorded string `json:"recorded"`
			Live     string `json:"live"`
		} `json:"title_changes"`
		PagesChecked int `json:"pages_checked"`
	} `json:"result"`
}

func TestDriftScenario(t *testing.T) {
	e := newDriftEnv(t)

	path := e.snapshot(t)
	if filepath.Dir(path) != e.outDir {
		t.Fatalf("snapshot written to %q, want under %q", path, e.outDir)
	}

	t.Run("snapshot records the tree", func(t *testing.T) {
		tree, err := snapshot.Load(path)
		if err != nil {
			t.Fatalf("failed to load snapshot: %v", err)
		}
		if tree.Count() != 3 {
			t.Fatalf("expected 3 pages, got %d", tree.Count())
		}
		if tree.URL != "/" || tree.Title != "Home" {
			t.Errorf("root = %q %q", tree.URL, tree.Title)
		}
		if len(tree.Children) != 2 || tree.Children[0].URL != "/a" || tree.Children[0].Title != "Alpha" {
			t.Errorf("unexpected children: %+v", tree.Children)
		}
	})

	t.Run("unchanged site has no drift", func(t *testing.T) {
		out, stderr, err := executeCmd(t, e.args("diff", "-P", path, "-u", e.server.URL, "-j", "--fail-on-drift")...)
		if err != nil {
			t.Fatalf("diff failed: %v\n%s", err, stderr)
		}
		var got jsonDiff
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if got.Result.PagesChecked != 3 || len(got.Result.MissingPages) != 0 || len(got.Result.RetitledPages) != 0 {
			t.Errorf("unexpected result: %+v", got.Result)
		}
	})

	e.site.remove("/b")
	e.site.set("/a", fetchertest.DocPage("Alpha v2", "/", "Home"))

	t.Run("changed site reports missing and retitled pages", func(t *testing.T) {
		out, stderr, err := executeCmd(t, e.args("diff", "--latest", e.server.URL, "-j")...)
		if err != nil {
			t.Fatalf("diff failed: %v\n%s", err, stderr)
		}
		var got jsonDiff
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(got.Result.MissingPages) != 1 || got.Result.MissingPages[0] != e.server.URL+"/b" {
			t.Errorf("missing = %v", got.Result.MissingPages)
		}
		if len(got.Result.RetitledPages) != 1 || got.Result.RetitledPages[0] != e.server.URL+"/a" {
			t.Errorf("retitled = %v", got.Result.RetitledPages)
		}
		change := got.Result.TitleChanges[e.server.URL+"/a"]
		if change.Recorded != "Alpha" || change.Live != "Alpha v2" {
			t.Errorf("title change = %+v", change)
		}
	})

	t.Run("fail on drift", func(t *testing.T) {
		_, _, err := executeCmd(t, e.args("diff", "-P", path, "-u", e.server.URL, "--fail-on-drift")...)
		if !errors.Is(err, ErrDriftDetected) {
			t.Errorf("expected ErrDriftDetected, got %v", err)
		}
	})

	t.Run("markdown report to file keeps text summary", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "reports", "drift.md")
		out, stderr, err := executeCmd(t, e.args("diff", "-P", path, "-u", e.server.URL, "-m", "-o", reportPath)...)
		if err != nil {
			t.Fatalf("diff failed: %v\n%s", err, stderr)
		}
		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(content), "# Documentation Drift Report") {
			t.Errorf("unexpected report:\n%s", content)
		}
		if !strings.Contains(out, "DOCDRIFT REPORT") || !strings.Contains(out, e.server.URL+"/b") {
			t.Errorf("expected text summary on stdout, got:\n%s", out)
		}
	})

	t.Run("history lists the snapshot and its runs", func(t *testing.T) {
		out, _, err := executeCmd(t, "history", e.server.URL, "--runs", "--db-dir", e.dbDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		if !strings.Contains(out, id) {
			t.Errorf("expected snapshot id %q in:\n%s", id, out)
		}
		if !strings.Contains(out, "diff #1") || !strings.Contains(out, "missing 1, retitled 1") {
			t.Errorf("expected diff runs in:\n%s", out)
		}
	})

	t.Run("history lists origins", func(t *testing.T) {
		out, _, err := executeCmd(t, "history", "-L", "--db-dir", e.dbDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, e.server.URL) {
			t.Errorf("expected origin in:\n%s", out)
		}
	})

	t.Run("show by id", func(t *testing.T) {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		out, _, err := executeCmd(t, "show", id, "--db-dir", e.dbDir)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, "  /a  \"Alpha\"") || !strings.Contains(out, "3 page(s)") {
			t.Errorf("unexpected outline:\n%s", out)
		}
	})

	t.Run("show by path as json", func(t *testing.T) {
		out, _, err := executeCmd(t, "show", path, "--json")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, `"title": "Home"`) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("snapshot refuses to overwrite", func(t *testing.T) {
		args := e.args("snapshot", e.server.URL, "-o", e.outDir, "--revision", "r1")
		_, _, err := executeCmd(t, args...)
		if !errors.Is(err, snapshot.ErrSnapshotExists) {
			t.Errorf("expected ErrSnapshotExists, got %v", err)
		}
	})
}

func TestSnapshotMetricsFile(t *testing.T) {
	e := newDriftEnv(t)
	metricsPath := filepath.Join(t.TempDir(), "docdrift.prom")

	e.snapshot(t, "--metrics-file", metricsPath)

	content, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	for _, want := range []string{"docdrift_fetch_total", "docdrift_crawl_pages_total"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("expected %s in metrics file", want)
		}
	}
}

func TestSnapshotDepthZero(t *testing.T) {
	e := newDriftEnv(t)

	path := e.snapshot(t, "-d", "0")
	tree, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if tree.Title != "Home" {
		t.Errorf("root title = %q", tree.Title)
	}
	for _, c := range tree.Children {
		if c.Title != "" || len(c.Children) != 0 {
			t.Errorf("depth-1 node %s should be an unfetched leaf", c.URL)
		}
	}
}

func TestDiffInvocationErrors(t *testing.T) {
	t.Parallel()

	t.Run("no snapshot", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "diff", "-u", "https://docs.example.com")
		if !errors.Is(err, config.ErrNoSnapshotPath) {
			t.Errorf("expected ErrNoSnapshotPath, got %v", err)
		}
	})

	t.Run("path and latest together", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "diff", "-P", "a.json", "--latest", "https://docs.example.com")
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("path without url", func(t *testing.T) {
		t.Parallel()
		if v, ok := os.LookupEnv(config.EnvBaseURL); ok && v != "" {
			t.Skip("BASE_URL is set in the environment")
		}
		_, _, err := executeCmd(t, "diff", "-P", "a.json")
		if !errors.Is(err, config.ErrNoBaseURL) {
			t.Errorf("expected ErrNoBaseURL, got %v", err)
		}
	})

	t.Run("positional arguments rejected", func(t *testing.T) {
		t.Parallel()
		if _, _, err := executeCmd(t, "diff", "extra"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()
		cfgPath := filepath.Join(t.TempDir(), ".docdrift")
		if err := os.WriteFile(cfgPath, []byte("defaults: {}\n"), 0600); err != nil {
			t.Fatal(err)
		}
		_, _, err := executeCmd(t, "diff", "-P", "a.json", "-u", "https://docs.example.com",
			"-j", "-m", "-c", cfgPath, "--db-dir", t.TempDir())
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}
