package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wardenhq/warden/pkg/bundle"
)

var (
	// ErrInvalidPatch marks a set/remove payload the resolved target cannot
	// accept (e.g. a non-string value for a string field).
	ErrInvalidPatch = errors.New("invalid patch")
)

// Overlay is one local, selector-addressed customization. Overlays live in
// the user's config and are mutated only by explicit commands, never by the
// engine itself.
type Overlay struct {
	Set      map[string]any `json:"set,omitempty"      jsonschema:"title=Set"`
	Selector string         `json:"selector"           jsonschema:"title=Selector"`
	Remove   []string       `json:"remove,omitempty"   jsonschema:"title=Remove"`
}

// Result reports the outcome of applying an overlay list.
type Result struct {
	// Unresolved lists selectors that did not resolve against the bundle.
	// They are reported, not fatal: an unresolved overlay must never abort
	// an otherwise-completable run.
	Unresolved []string
	// Applied counts overlays whose patches were applied.
	Applied int
}

// Apply applies overlays to the bundle in configuration order. Applying the
// same overlay list twice is idempotent: the second application is a no-op
// on an already-patched bundle.
//
// Malformed selector text is a validation error and aborts immediately;
// an unresolved selector is recorded in the result and skipped.
func Apply(b *bundle.Bundle, overlays []Overlay) (*Result, error) {
	res := &Result{}

	for _, o := range overlays {
		sel, err := ParseSelector(o.Selector)
		if err != nil {
			return nil, err
		}

		tgt, ok := resolve(sel, b, len(o.Set) > 0)
		if !ok {
			res.Unresolved = append(res.Unresolved, o.Selector)

			slog.Warn("overlay selector did not resolve",
				slog.String("selector", o.Selector),
			)

			continue
		}

		err = applyPatch(tgt, o)
		if err != nil {
			return nil, fmt.Errorf("overlay %q: %w", o.Selector, err)
		}

		res.Applied++
	}

	return res, nil
}

func applyPatch(tgt target, o Overlay) error {
	// Map iteration order is random; sort keys so repeated runs patch in the
	// same order.
	keys := make([]string, 0, len(o.Set))
	for k := range o.Set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		path, err := splitKey(k)
		if err != nil {
			return err
		}

		err = tgt.set(path, o.Set[k])
		if err != nil {
			return err
		}
	}

	for _, k := range o.Remove {
		path, err := splitKey(k)
		if err != nil {
			return err
		}

		tgt.remove(path)
	}

	return nil
}

// FindStale returns every overlay selector that fails to resolve against the
// current bundle, including selectors that no longer parse. Staleness tracks
// resolvability, not hash equality: an upstream rewording that leaves the
// targeted heading or fingerprint intact keeps the overlay valid.
func FindStale(overlays []Overlay, b *bundle.Bundle) []string {
	var stale []string

	for _, o := range overlays {
		sel, err := ParseSelector(o.Selector)
		if err != nil {
			stale = append(stale, o.Selector)

			continue
		}

		_, ok := resolve(sel, b, false)
		if !ok {
			stale = append(stale, o.Selector)
		}
	}

	return stale
}

// splitKey interprets a set/remove key as dot segments relative to the
// resolved target.
func splitKey(key string) ([]string, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidPatch)
	}

	path := strings.Split(key, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, fmt.Errorf("%w: key %q has an empty segment", ErrInvalidPatch, key)
		}
	}

	return path, nil
}

// sectionTarget patches a resolved section. The typed fields are addressable
// by name; everything else routes into vendor metadata.
type sectionTarget struct {
	section *bundle.Section
}

func (t *sectionTarget) set(path []string, value any) error {
	field := path[0]

	switch field {
	case "heading", "content", "explicitId", "sourceFile":
		if len(path) > 1 {
			return fmt.Errorf("%w: %s has no children", ErrInvalidPatch, field)
		}

		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidPatch, field, value)
		}

		switch field {
		case "heading":
			t.section.Heading = s
		case "content":
			t.section.Content = s
		case "explicitId":
			t.section.ExplicitID = s
		case "sourceFile":
			t.section.SourceFile = s
		}

	case "level":
		if len(path) > 1 {
			return fmt.Errorf("%w: level has no children", ErrInvalidPatch)
		}

		lvl, ok := toInt(value)
		if !ok {
			return fmt.Errorf("%w: level must be an integer, got %T", ErrInvalidPatch, value)
		}

		t.section.Level = lvl

	case "vendorMetadata":
		if len(path) == 1 {
			m, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: vendorMetadata must be a map, got %T", ErrInvalidPatch, value)
			}

			t.ensureMetadata()
			for k, v := range m {
				t.section.VendorMetadata[k] = v
			}

			return nil
		}

		t.ensureMetadata()
		setInMap(t.section.VendorMetadata, path[1:], value)

	default:
		// Unknown keys are vendor-specific annotations.
		t.ensureMetadata()
		setInMap(t.section.VendorMetadata, path, value)
	}

	return nil
}

func (t *sectionTarget) remove(path []string) {
	field := path[0]

	switch field {
	case "heading", "content", "explicitId", "sourceFile":
		if len(path) > 1 {
			return
		}

		switch field {
		case "heading":
			t.section.Heading = ""
		case "content":
			t.section.Content = ""
		case "explicitId":
			t.section.ExplicitID = ""
		case "sourceFile":
			t.section.SourceFile = ""
		}

	case "level":
		t.section.Level = 0

	case "vendorMetadata":
		if len(path) == 1 {
			t.section.VendorMetadata = nil

			return
		}

		removeFromMap(t.section.VendorMetadata, path[1:])

	default:
		removeFromMap(t.section.VendorMetadata, path)
	}
}

func (t *sectionTarget) ensureMetadata() {
	if t.section.VendorMetadata == nil {
		t.section.VendorMetadata = map[string]any{}
	}
}

// mapTarget patches a resolved property subtree.
type mapTarget struct {
	node map[string]any
}

func (t *mapTarget) set(path []string, value any) error {
	setInMap(t.node, path, value)

	return nil
}

func (t *mapTarget) remove(path []string) {
	removeFromMap(t.node, path)
}

// setInMap writes value at path, creating intermediate containers. A scalar
// in the way is replaced by a container; set is a write operation, and
// writes may materialize structure.
func setInMap(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value

		return
	}

	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}

	setInMap(child, path[1:], value)
}

// removeFromMap deletes the value at path. Reads never create containers, so
// a missing intermediate makes the remove a no-op.
func removeFromMap(m map[string]any, path []string) {
	if m == nil {
		return
	}

	if len(path) == 1 {
		delete(m, path[0])

		return
	}

	child, ok := m[path[0]].(map[string]any)
	if !ok {
		return
	}

	removeFromMap(child, path[1:])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}

	return 0, false
}
