package model

import "time"

// SnapshotInfo describes a snapshot file recorded in the index.
type SnapshotInfo struct {
	ID         string    `json:"id"`
	Origin     string    `json:"origin"`
	Revision   string    `json:"revision"`
	Path       string    `json:"path"`
	PageCount  int       `json:"page_count"`
	MaxDepth   int       `json:"max_depth"`
	CapturedAt time.Time `json:"captured_at"`
}

// DiffRun summarizes one comparison of a snapshot against a live site.
type DiffRun struct {
	ID            int64     `json:"id"`
	SnapshotID    string    `json:"snapshot_id"`
	BaseURL       string    `json:"base_url"`
	PagesChecked  int       `json:"pages_checked"`
	MissingCount  int       `json:"missing_count"`
	RetitledCount int       `json:"retitled_count"`
	CheckedAt     time.Time `json:"checked_at"`
}
