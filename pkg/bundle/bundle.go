package bundle

import (
	"fmt"
)

// Bundle is the full, currently-merged set of rule sections plus top-level
// metadata. Bundles are produced fresh on each invocation; the only identity
// that persists across invocations is the section fingerprint.
type Bundle struct {
	// Props holds top-level bundle properties addressable by dot-path
	// selectors.
	Props map[string]any `json:"props,omitempty"`
	// ID names the bundle.
	ID string `json:"id"`
	// Version is the bundle's own version.
	Version string `json:"version"`
	// SpecVersion is the version of the bundle layout.
	SpecVersion string `json:"specVersion"`
	// Sections in source-priority order. First source wins ties; order is
	// never alphabetical.
	Sections []*Section `json:"sections"`
}

// RuleHash pairs a section fingerprint with its current content hash.
type RuleHash struct {
	RuleID      string
	ContentHash string
}

// RuleHashes returns the per-section content hashes in bundle order.
func (b *Bundle) RuleHashes() ([]RuleHash, error) {
	hashes := make([]RuleHash, 0, len(b.Sections))

	for _, s := range b.Sections {
		ch, err := s.ContentHash()
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", s.Fingerprint(), err)
		}

		hashes = append(hashes, RuleHash{
			RuleID:      s.Fingerprint(),
			ContentHash: ch,
		})
	}

	return hashes, nil
}

// SectionByFingerprint returns the first section with the given fingerprint.
func (b *Bundle) SectionByFingerprint(fp string) (*Section, bool) {
	for _, s := range b.Sections {
		if s.Fingerprint() == fp {
			return s, true
		}
	}

	return nil, false
}

// SectionByHeading returns the first section whose trimmed heading equals
// the given text case-insensitively.
func (b *Bundle) SectionByHeading(heading string) (*Section, bool) {
	want := headingKey(heading)

	for _, s := range b.Sections {
		if headingKey(s.Heading) == want {
			return s, true
		}
	}

	return nil, false
}
