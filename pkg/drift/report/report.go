// Package report renders drift findings for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wardenhq/warden/pkg/drift"
)

// Format selects an output renderer.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(FormatHuman), string(FormatJSON), string(FormatSARIF)}
}

// ParseFormat validates a format name from a flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHuman, FormatJSON, FormatSARIF:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, s, Formats())
	}
}

// Options tunes the human renderer; the machine formats ignore it.
type Options struct {
	// GeneratedAt is the lockfile generation time, shown as an age when set.
	GeneratedAt time.Time
}

// Write renders findings to w in the given format.
func Write(w io.Writer, format Format, findings []drift.Finding, opts Options) error {
	switch format {
	case FormatHuman:
		return writeHuman(w, findings, opts)
	case FormatJSON:
		return writeJSON(w, findings)
	case FormatSARIF:
		return writeSARIF(w, findings)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeHuman(w io.Writer, findings []drift.Finding, opts Options) error {
	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, "no drift detected")

		return err
	}

	if !opts.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "lockfile generated %s\n\n", humanize.Time(opts.GeneratedAt))
	}

	for _, f := range findings {
		fmt.Fprintf(w, "[%s]", f.Category)

		if f.RuleID != "" {
			fmt.Fprintf(w, " %s", f.RuleID)
		}

		fmt.Fprintf(w, ": %s\n", f.Description)

		if f.RecordedHash != "" {
			fmt.Fprintf(w, "  recorded %s\n  current  %s\n", f.RecordedHash, f.CurrentHash)
		}

		if f.Suggestion != "" {
			fmt.Fprintf(w, "  hint: %s\n", f.Suggestion)
		}
	}

	_, err := fmt.Fprintf(w, "\n%d finding(s)\n", len(findings))

	return err
}

func writeJSON(w io.Writer, findings []drift.Finding) error {
	if findings == nil {
		findings = []drift.Finding{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(map[string]any{"findings": findings})
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}

	return nil
}
