package snapshot

import "errors"

var (
	// ErrSnapshotNotFound is returned when a snapshot file does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotParse is returned when a snapshot file is not a valid tree.
	ErrSnapshotParse = errors.New("failed to parse snapshot")

	// ErrSnapshotExists is returned when saving would replace an existing file.
	ErrSnapshotExists = errors.New("snapshot already exists")

	// ErrEmptyID is returned when saving without an identifier.
	ErrEmptyID = errors.New("snapshot id is empty")
)
