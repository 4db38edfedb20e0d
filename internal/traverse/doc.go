// Package traverse provides the ordered containers used to walk site trees:
// a FIFO Queue for breadth-first crawling and a LIFO Stack for the
// snapshot reconciliation pass.
//
// Neither container is safe for concurrent use. Each traversal owns its
// container for the lifetime of a single run.
package traverse
