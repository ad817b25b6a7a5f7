package bundle

import (
	"fmt"
	"strings"

	"github.com/wardenhq/warden/pkg/hash"
)

// fingerprintLen truncates section fingerprints to keep selectors short.
const fingerprintLen = 16

// Section is one heading+content unit of guidance.
type Section struct {
	// VendorMetadata carries per-vendor annotations from front matter.
	// It may nominate volatile paths under the reserved "x-volatile" key.
	VendorMetadata map[string]any `json:"vendorMetadata,omitempty"`
	// Heading is the section title, without the leading markers.
	Heading string `json:"heading"`
	// Content is the body text below the heading.
	Content string `json:"content"`
	// ExplicitID overrides the computed fingerprint when set.
	ExplicitID string `json:"explicitId,omitempty"`
	// SourceFile records which file this section came from.
	SourceFile string `json:"sourceFile,omitempty"`
	// Level is the heading depth (number of '#' markers).
	Level int `json:"level"`
}

// Fingerprint returns the stable identity of the section: the explicit ID
// when present, otherwise a truncated digest of heading and content.
// Reordering sections never changes their fingerprints.
func (s *Section) Fingerprint() string {
	if s.ExplicitID != "" {
		return s.ExplicitID
	}

	sum := hash.SumString(strings.TrimSpace(s.Heading) + "\n" + s.Content)

	return sum[:fingerprintLen]
}

// ContentHash returns the full content hash of the section, honoring any
// volatile paths the section's vendor metadata nominates for itself.
func (s *Section) ContentHash() (string, error) {
	doc := map[string]any{
		"heading": strings.TrimSpace(s.Heading),
		"level":   s.Level,
		"content": s.Content,
	}

	if len(s.VendorMetadata) > 0 {
		vm := make(map[string]any, len(s.VendorMetadata))
		for k, v := range s.VendorMetadata {
			vm[k] = v
		}

		// Hoist the self-describing nomination to the document root so the
		// hasher can see it.
		if nominated, ok := vm[hash.VolatileKey]; ok {
			doc[hash.VolatileKey] = nominated
			delete(vm, hash.VolatileKey)
		}

		doc["vendorMetadata"] = vm
	}

	sum, err := hash.Sum(doc)
	if err != nil {
		return "", fmt.Errorf("hash section %q: %w", s.Heading, err)
	}

	return sum, nil
}

// headingKey normalizes a heading for collision and selector matching.
func headingKey(heading string) string {
	return strings.ToLower(strings.TrimSpace(heading))
}
