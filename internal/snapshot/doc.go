// Package snapshot persists site trees as JSON documents.
//
// A snapshot file holds one model.SiteNode tree in the form
//
//	{"url": "/", "title": "Home", "children": [...], "depth": 0}
//
// indented with two spaces. Files are named after the site origin and a
// revision marker (a git short hash or a UTC timestamp) and are never
// rewritten once saved unless the store is told to overwrite.
package snapshot
