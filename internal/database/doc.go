// Package database keeps an SQLite index of snapshots and diff runs.
//
// Snapshot trees themselves live in JSON files (see package snapshot) so
// they can be committed, reviewed and diffed with ordinary tools. The index
// only records where each file is, which origin and revision it belongs to,
// and the outcome of every comparison, which lets "docdrift diff --latest"
// find the newest snapshot of a site and "docdrift history" list past runs.
//
// Design decision: SQLite via modernc.org/sqlite keeps the index a single
// CGO-free file in the user's data directory.
package database
