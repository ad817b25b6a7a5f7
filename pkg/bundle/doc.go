// Package bundle merges rule sections from multiple sources into one ordered
// bundle with stable section identity.
//
// Identity is the section fingerprint: a deterministic function of heading
// and content (or an author-supplied explicit ID) that survives reordering.
// Merge order is source-priority order; on a fingerprint or heading
// collision the earliest-encountered section wins.
package bundle
