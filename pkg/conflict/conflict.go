// Package conflict reconciles externally edited copies of the same logical
// section. Resolution picks a winner and keeps every loser; nothing is
// deleted and no text is merged.
package conflict

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/aymanbagabas/go-udiff"
)

// Candidate is one externally observed copy of a section.
type Candidate struct {
	// ModTime is the copy's filesystem modification time.
	ModTime time.Time
	// Path locates the copy on disk.
	Path string
	// Fingerprint identifies the logical section the copy claims to be.
	Fingerprint string
	// Content is the copy's body text.
	Content string
}

// Conflict groups divergent candidates for one fingerprint. The winner is
// the most recently modified candidate; the rest are retained untouched.
type Conflict struct {
	Fingerprint string
	Winner      Candidate
	Losers      []Candidate
}

// Diff renders a unified diff from the given loser to the winner.
func (c *Conflict) Diff(loser Candidate) string {
	return udiff.Unified(loser.Path, c.Winner.Path, loser.Content, c.Winner.Content)
}

// Resolve groups candidates by fingerprint and resolves every group with
// more than one distinct content. Within a group candidates are ordered by
// modification time ascending, with path as the tiebreak, so resolution is
// deterministic even when mtimes collide. Copies with identical content are
// not conflicts.
func Resolve(candidates []Candidate) []Conflict {
	groups := make(map[string][]Candidate)
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if _, seen := groups[c.Fingerprint]; !seen {
			order = append(order, c.Fingerprint)
		}

		groups[c.Fingerprint] = append(groups[c.Fingerprint], c)
	}

	var conflicts []Conflict

	for _, fp := range order {
		group := groups[fp]
		if !diverges(group) {
			continue
		}

		slices.SortStableFunc(group, func(a, b Candidate) int {
			if c := a.ModTime.Compare(b.ModTime); c != 0 {
				return c
			}

			return cmp.Compare(a.Path, b.Path)
		})

		conflicts = append(conflicts, Conflict{
			Fingerprint: fp,
			Winner:      group[len(group)-1],
			Losers:      group[:len(group)-1],
		})
	}

	return conflicts
}

func diverges(group []Candidate) bool {
	for _, c := range group[1:] {
		if c.Content != group[0].Content {
			return true
		}
	}

	return false
}

// Summary is a one-line description of the conflict for log records.
func (c *Conflict) Summary() string {
	return fmt.Sprintf("%s: %d copies diverge, %s wins (modified %s)",
		c.Fingerprint, len(c.Losers)+1, c.Winner.Path, c.Winner.ModTime.Format(time.RFC3339))
}
