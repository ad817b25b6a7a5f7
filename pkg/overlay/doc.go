// Package overlay implements the selector sublanguage and patch engine that
// lets an author customize specific rules without forking upstream content.
//
// A selector is one of four addressing schemes:
//
//	sections[N]              Nth section by current order
//	sections[heading=<text>] first section matching <text> case-insensitively
//	rule[id=<fingerprint>]   section with the given fingerprint
//	<dot.path>               top-level bundle property
//
// Overlays apply set/remove patches against the resolved target. A selector
// that no longer resolves against the current bundle is stale; staleness
// tracks resolvability, not hash equality, so benign upstream rewording
// leaves an overlay valid.
package overlay
