package model

import "time"

// TitleChange records the heading stored in a snapshot next to the one
// served by the live site.
type TitleChange struct {
	Recorded string `json:"recorded"`
	Live     string `json:"live"`
}

// DiffResult is the outcome of reconciling a snapshot against a live site.
type DiffResult struct {
	// MissingPages holds URLs that failed to fetch or rendered the
	// site's not-found page.
	MissingPages URLSet `json:"missing_pages"`

	// RetitledPages holds URLs that were fetched but whose title differs
	// from the recorded one.
	RetitledPages URLSet `json:"retitled_pages"`

	// TitleChanges maps each retitled URL to its old and new titles.
	TitleChanges map[string]TitleChange `json:"title_changes,omitempty"`

	// PagesChecked is the number of snapshot nodes visited.
	PagesChecked int `json:"pages_checked"`
}

// NewDiffResult creates an empty result.
func NewDiffResult() *DiffResult {
	return &DiffResult{
		MissingPages:  NewURLSet(),
		RetitledPages: NewURLSet(),
		TitleChanges:  make(map[string]TitleChange),
	}
}

// HasDrift reports whether any page is missing or retitled.
func (r *DiffResult) HasDrift() bool {
	return r.MissingPages.Len() > 0 || r.RetitledPages.Len() > 0
}

// DiffReport wraps a DiffResult with the context needed to present it.
type DiffReport struct {
	SnapshotPath string      `json:"snapshot_path"`
	BaseURL      string      `json:"base_url"`
	CheckedAt    time.Time   `json:"checked_at"`
	Result       *DiffResult `json:"result"`
}
