// Package model defines the data structures shared by the crawl and diff
// engines: the site tree, the URL sets used for deduplication and results,
// and the rows kept in the snapshot index.
//
// These types carry no I/O. Serialization lives in the snapshot package and
// persistence of index rows in the database package.
package model
