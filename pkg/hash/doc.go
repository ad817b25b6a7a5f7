// Package hash provides deterministic canonical serialization and content
// hashing for structured documents.
//
// Documents are reduced to a canonical JSON form (object keys sorted, array
// order preserved) before hashing, so two logically identical documents
// always produce byte-identical canonical strings and digests regardless of
// key order.
//
// Documents may nominate their own volatile paths (session identifiers,
// timestamps) under the reserved "x-volatile" key. Nominated paths are
// stripped before hashing unless the caller opts in with [WithVolatile].
package hash
