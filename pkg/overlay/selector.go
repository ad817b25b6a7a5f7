package overlay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wardenhq/warden/pkg/bundle"
)

// ErrInvalidSelector marks selector text that does not parse.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector is the closed set of addressing schemes overlays may use.
// It is a tagged union resolved through a single dispatch function; call
// sites never branch on selector text themselves.
type Selector interface {
	fmt.Stringer

	isSelector()
}

// ByIndex addresses the Nth section by current order. Breaks on reorder.
type ByIndex struct {
	raw   string
	Index int
}

// ByHeading addresses the first section whose trimmed heading equals the
// text case-insensitively. Breaks on rename.
type ByHeading struct {
	raw     string
	Heading string
}

// ByFingerprint addresses the section with the given fingerprint. Survives
// reorder; breaks on content or heading change.
type ByFingerprint struct {
	raw string
	ID  string
}

// ByPath addresses a top-level bundle property by dot path. Breaks if the
// property is removed.
type ByPath struct {
	raw      string
	Segments []string
}

func (s ByIndex) String() string       { return s.raw }
func (s ByHeading) String() string     { return s.raw }
func (s ByFingerprint) String() string { return s.raw }
func (s ByPath) String() string        { return s.raw }

func (ByIndex) isSelector()       {}
func (ByHeading) isSelector()     {}
func (ByFingerprint) isSelector() {}
func (ByPath) isSelector()        {}

const (
	sectionsPrefix = "sections["
	rulePrefix     = "rule["
	headingPrefix  = "heading="
	idPrefix       = "id="
)

// ParseSelector maps selector text to one of the four selector kinds.
// Selector syntax is case-sensitive; only heading VALUES match
// case-insensitively at resolution time.
func ParseSelector(text string) (Selector, error) {
	switch {
	case strings.HasPrefix(text, sectionsPrefix):
		return parseSectionsSelector(text)

	case strings.HasPrefix(text, rulePrefix):
		return parseRuleSelector(text)
	}

	return parsePathSelector(text)
}

func parseSectionsSelector(text string) (Selector, error) {
	arg, ok := bracketArg(text, sectionsPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q: expected sections[...]", ErrInvalidSelector, text)
	}

	if heading, found := strings.CutPrefix(arg, headingPrefix); found {
		if heading == "" {
			return nil, fmt.Errorf("%w: %q: empty heading", ErrInvalidSelector, text)
		}

		return ByHeading{raw: text, Heading: heading}, nil
	}

	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: index must be an integer", ErrInvalidSelector, text)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q: index must not be negative", ErrInvalidSelector, text)
	}

	return ByIndex{raw: text, Index: idx}, nil
}

func parseRuleSelector(text string) (Selector, error) {
	arg, ok := bracketArg(text, rulePrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q: expected rule[id=...]", ErrInvalidSelector, text)
	}

	id, found := strings.CutPrefix(arg, idPrefix)
	if !found || id == "" {
		return nil, fmt.Errorf("%w: %q: expected rule[id=<fingerprint>]", ErrInvalidSelector, text)
	}

	return ByFingerprint{raw: text, ID: id}, nil
}

func parsePathSelector(text string) (Selector, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	segments := strings.Split(text, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q: empty path segment", ErrInvalidSelector, text)
		}
		if strings.ContainsAny(seg, "[]") {
			return nil, fmt.Errorf("%w: %q: unknown selector form", ErrInvalidSelector, text)
		}
	}

	return ByPath{raw: text, Segments: segments}, nil
}

func bracketArg(text, prefix string) (string, bool) {
	if !strings.HasSuffix(text, "]") {
		return "", false
	}

	arg := text[len(prefix) : len(text)-1]
	if arg == "" {
		return "", false
	}

	return arg, true
}

// target is a resolved, mutable patch destination.
type target interface {
	set(path []string, value any) error
	remove(path []string)
}

// resolve is the single dispatch point mapping a selector to a mutable
// target, or unresolved. With create set, path selectors materialize missing
// intermediate containers; reads never do.
func resolve(sel Selector, b *bundle.Bundle, create bool) (target, bool) {
	switch s := sel.(type) {
	case ByIndex:
		if s.Index >= len(b.Sections) {
			return nil, false
		}

		return &sectionTarget{section: b.Sections[s.Index]}, true

	case ByHeading:
		sec, ok := b.SectionByHeading(s.Heading)
		if !ok {
			return nil, false
		}

		return &sectionTarget{section: sec}, true

	case ByFingerprint:
		sec, ok := b.SectionByFingerprint(s.ID)
		if !ok {
			return nil, false
		}

		return &sectionTarget{section: sec}, true

	case ByPath:
		return resolvePath(s.Segments, b, create)
	}

	return nil, false
}

func resolvePath(segments []string, b *bundle.Bundle, create bool) (target, bool) {
	if b.Props == nil {
		if !create {
			return nil, false
		}

		b.Props = map[string]any{}
	}

	current := b.Props

	for _, seg := range segments {
		next, ok := current[seg]
		if !ok {
			if !create {
				return nil, false
			}

			child := map[string]any{}
			current[seg] = child
			current = child

			continue
		}

		childMap, ok := next.(map[string]any)
		if !ok {
			// A scalar in the middle of the path cannot hold children.
			return nil, false
		}

		current = childMap
	}

	return &mapTarget{node: current}, true
}
