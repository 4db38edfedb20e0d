// Package differ reconciles a stored snapshot tree against the live site.
//
// Every node of the snapshot is fetched once from the live base URL. A node
// whose fetch fails, or that renders the site's not-found page, is missing;
// a node that loads with a different heading is retitled. No new pages are
// discovered: pages added since the snapshot are out of scope.
//
// Traversal uses an explicit stack seeded with the root. Children are pushed
// before their parent's fetch, so the order of checks is depth-first with
// the last child first. With a concurrency above one, the stack still
// enumerates the tree while the checks themselves run on a bounded errgroup.
package differ
