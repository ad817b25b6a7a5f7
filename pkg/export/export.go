// Package export hands the finalized section list to external tools. The
// core never interprets what an exporter writes; it only records the
// exporter's result.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/log"
)

var (
	ErrExporterNotFound = errors.New("exporter not found")
	ErrExportFailed     = errors.New("export failed")
)

// Result is what an exporter reports back after a run.
type Result struct {
	// Name identifies the exporter that produced this result.
	Name string `json:"name"`
	// ContentHash is the canonical hash of the payload the exporter
	// received, usable for later drift comparison.
	ContentHash string `json:"content_hash,omitempty"`
	// FilesWritten lists destinations the exporter claims to have written.
	FilesWritten []string `json:"files_written,omitempty"`
	// Warnings are non-fatal problems the exporter surfaced.
	Warnings []string `json:"warnings,omitempty"`
	// Success reports whether the exporter completed.
	Success bool `json:"success"`
}

// Exporter pushes sections into some external destination.
type Exporter interface {
	// Name identifies the exporter in config and CLI arguments.
	Name() string
	// Export delivers the sections. A returned error means the exporter
	// could not run at all; per-file problems belong in Result.Warnings.
	Export(ctx context.Context, sections []*bundle.Section) (Result, error)
}

// Registry holds configured exporters by name.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates a [Registry] from the given exporters. Later
// duplicates replace earlier ones.
func NewRegistry(exporters ...Exporter) *Registry {
	r := &Registry{exporters: make(map[string]Exporter, len(exporters))}

	for _, e := range exporters {
		r.exporters[e.Name()] = e
	}

	return r
}

// Get returns the named exporter.
func (r *Registry) Get(name string) (Exporter, error) {
	e, ok := r.exporters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrExporterNotFound, name)
	}

	return e, nil
}

// Names returns the registered exporter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Run executes the named exporters in the given order, or all registered
// exporters in name order when names is empty. A failing exporter does not
// stop the remaining ones; its failure is recorded in its result.
func (r *Registry) Run(ctx context.Context, sections []*bundle.Section, names ...string) ([]Result, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	results := make([]Result, 0, len(names))

	for _, name := range names {
		e, err := r.Get(name)
		if err != nil {
			return nil, err
		}

		result, err := e.Export(ctx, sections)
		if err != nil {
			log.WithContext(ctx).Warn("exporter failed",
				slog.String("exporter", name),
				slog.Any("error", err),
			)

			result = Result{
				Name:     name,
				Success:  false,
				Warnings: []string{err.Error()},
			}
		}

		results = append(results, result)
	}

	return results, nil
}
