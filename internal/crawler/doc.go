// Package crawler builds the navigational tree of a documentation site.
//
// # Architecture
//
// Spider performs a breadth-first traversal from a seed URL. Each fetched
// page contributes its heading as the node title and its same-origin links
// as children. A URL is claimed by the first page that links to it, so the
// result is a spanning tree of the link graph: a page reachable through
// several paths appears once, under its first discoverer.
//
// Design decision: the traversal is sequential. Documentation sites are
// crawled politely with a fixed delay between requests, and breadth-first
// order with a single fetch in flight keeps the tree deterministic, which
// makes snapshots taken at different times comparable.
//
// # Depth
//
// Pages at the maximum depth are fetched and their links recorded as leaf
// children; those leaves are never fetched. A snapshot therefore lists the
// pages one hop beyond the limit, with empty titles.
//
// # Usage
//
//	spider := crawler.NewSpider(f, ext, crawler.WithMaxDepth(3))
//	tree, err := spider.Crawl(ctx, "https://docs.example.com")
package crawler
