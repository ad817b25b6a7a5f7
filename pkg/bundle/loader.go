package bundle

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrRequiredSource marks a merge aborted by an unreadable required source.
var ErrRequiredSource = errors.New("required source failed")

// Warning records a non-fatal problem encountered during a merge.
type Warning struct {
	Source  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Source, w.Message)
}

// Meta carries the top-level bundle metadata supplied by configuration.
type Meta struct {
	Props       map[string]any
	ID          string
	Version     string
	SpecVersion string
}

// Load merges sections from sources, in configured order, into a bundle.
//
// Within a source, file-read order is preserved. On a collision (same
// fingerprint or same normalized heading) the earliest-encountered section
// wins; later duplicates are dropped whole, never merged field by field.
// A source that cannot be read is reported as a warning and skipped, unless
// it is marked required, in which case the merge aborts.
func Load(meta Meta, sources []Source) (*Bundle, []Warning, error) {
	b := &Bundle{
		ID:          meta.ID,
		Version:     meta.Version,
		SpecVersion: meta.SpecVersion,
		Props:       meta.Props,
	}

	var warnings []Warning

	seenFingerprints := map[string]string{}
	seenHeadings := map[string]string{}

	for _, src := range sources {
		sections, err := src.Load()
		if err != nil {
			if src.Required() {
				return nil, warnings, fmt.Errorf("%w: %s: %w", ErrRequiredSource, src.Name(), err)
			}

			warnings = append(warnings, Warning{
				Source:  src.Name(),
				Message: err.Error(),
			})

			slog.Warn("skipping unreadable source",
				slog.String("source", src.Name()),
				slog.Any("error", err),
			)

			continue
		}

		for _, s := range sections {
			fp := s.Fingerprint()
			hk := headingKey(s.Heading)

			if winner, ok := seenFingerprints[fp]; ok {
				slog.Debug("dropping duplicate section",
					slog.String("fingerprint", fp),
					slog.String("kept", winner),
					slog.String("dropped", s.SourceFile),
				)

				continue
			}

			if winner, ok := seenHeadings[hk]; ok {
				slog.Debug("dropping duplicate heading",
					slog.String("heading", s.Heading),
					slog.String("kept", winner),
					slog.String("dropped", s.SourceFile),
				)

				continue
			}

			seenFingerprints[fp] = s.SourceFile
			seenHeadings[hk] = s.SourceFile

			b.Sections = append(b.Sections, s)
		}
	}

	return b, warnings, nil
}
