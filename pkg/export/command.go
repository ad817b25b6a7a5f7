package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/hash"
	"github.com/wardenhq/warden/pkg/log"
	wyaml "github.com/wardenhq/warden/pkg/yaml"
)

// CommandExporter runs a configured command and streams the section list to
// it as YAML on stdin. Each non-empty line the command prints on stdout is
// taken as a file it wrote; stderr lines become warnings.
type CommandExporter struct {
	name    string
	command string
	argv    []string
}

// NewCommandExporter parses command into an argv. The command string uses
// shell-style word splitting and quoting but is executed directly, without
// a shell.
func NewCommandExporter(name, command string) (*CommandExporter, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse exporter command %q: %w", name, err)
	}

	if len(argv) == 0 {
		return nil, fmt.Errorf("parse exporter command %q: empty command", name)
	}

	return &CommandExporter{name: name, command: command, argv: argv}, nil
}

// Name implements [Exporter].
func (e *CommandExporter) Name() string {
	return e.name
}

// Export implements [Exporter].
func (e *CommandExporter) Export(ctx context.Context, sections []*bundle.Section) (Result, error) {
	payload, contentHash, err := encodePayload(sections)
	if err != nil {
		return Result{}, err
	}

	log.WithContext(ctx).Debug("running exporter",
		slog.String("exporter", e.name),
		slog.String("command", e.command),
		slog.Int("sections", len(sections)),
	)

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("%w: exporter %q: %w: %s", ErrExportFailed, e.name, err, strings.TrimSpace(stderr.String()))
	}

	return Result{
		Name:         e.name,
		Success:      true,
		ContentHash:  contentHash,
		FilesWritten: splitLines(stdout.String()),
		Warnings:     splitLines(stderr.String()),
	}, nil
}

// encodePayload renders sections as a YAML document and returns its
// canonical content hash.
func encodePayload(sections []*bundle.Section) ([]byte, string, error) {
	var buf bytes.Buffer

	enc := wyaml.NewEncoder(&buf)
	if err := enc.Encode(map[string]any{"sections": sections}); err != nil {
		return nil, "", fmt.Errorf("encode export payload: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, "", fmt.Errorf("encode export payload: %w", err)
	}

	contentHash, err := hash.Sum(map[string]any{"sections": sections})
	if err != nil {
		return nil, "", fmt.Errorf("hash export payload: %w", err)
	}

	return buf.Bytes(), contentHash, nil
}

func splitLines(s string) []string {
	var lines []string

	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
