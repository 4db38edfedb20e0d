// Package report renders diff results and snapshot trees.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for pull request comments and wikis
//   - TreeWriter: Indented outline of a snapshot tree
//
// Design decision: Report writing is kept apart from the data structures
// in the model package so new output formats can be added without
// touching the diff engine.
//
// Diff writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
