package bundle

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wardenhq/warden/pkg/yaml"
)

// Source yields zero or more sections tagged with their origin file.
type Source interface {
	// Name identifies the source in warnings and provenance reports.
	Name() string
	// Required marks sources whose failure aborts the whole merge.
	Required() bool
	// Load reads the source and returns its sections in file-read order.
	Load() ([]*Section, error)
}

// DirSource reads markdown rule files from a directory. Files are read in
// lexical order; within a file, sections appear in document order.
type DirSource struct {
	Path     string
	Require  bool
	MaxDepth int
}

func NewDirSource(path string, required bool) *DirSource {
	return &DirSource{
		Path:    path,
		Require: required,
	}
}

func (s *DirSource) Name() string { return s.Path }

func (s *DirSource) Required() bool { return s.Require }

// Load parses every markdown file under the source directory.
func (s *DirSource) Load() ([]*Section, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	var files []string

	if info.IsDir() {
		entries, err := os.ReadDir(s.Path)
		if err != nil {
			return nil, fmt.Errorf("read source dir: %w", err)
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}

			ext := filepath.Ext(e.Name())
			if ext == ".md" || ext == ".markdown" {
				files = append(files, filepath.Join(s.Path, e.Name()))
			}
		}

		sort.Strings(files)
	} else {
		files = []string{s.Path}
	}

	var sections []*Section

	for _, file := range files {
		data, err := os.ReadFile(file) //nolint:gosec // G304: Potential file inclusion via variable.
		if err != nil {
			return nil, fmt.Errorf("read rule file: %w", err)
		}

		fileSections, err := ParseMarkdown(file, data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		sections = append(sections, fileSections...)
	}

	return sections, nil
}

// StaticSource serves a fixed section list. Used for stdin input and tests.
type StaticSource struct {
	SourceName string
	Sections   []*Section
	Require    bool
}

func (s *StaticSource) Name() string { return s.SourceName }

func (s *StaticSource) Required() bool { return s.Require }

func (s *StaticSource) Load() ([]*Section, error) {
	return s.Sections, nil
}

// ParseMarkdown splits a markdown document into sections at ATX headings.
// An optional YAML front matter block becomes VendorMetadata on every
// section of the file, each section holding its own copy; a front matter
// `id` becomes the ExplicitID when the file yields exactly one section.
func ParseMarkdown(sourceFile string, data []byte) ([]*Section, error) {
	meta, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var (
		sections []*Section
		current  *Section
		content  strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}

		current.Content = strings.TrimSpace(content.String())
		sections = append(sections, current)
		content.Reset()
	}

	for line := range strings.Lines(string(body)) {
		level, heading, ok := parseHeading(line)
		if ok {
			flush()

			current = &Section{
				Heading:        heading,
				Level:          level,
				SourceFile:     sourceFile,
				VendorMetadata: cloneMeta(meta),
			}

			continue
		}

		if current != nil {
			content.WriteString(line)
		}
	}

	flush()

	if len(sections) == 1 {
		if id, ok := meta["id"].(string); ok && id != "" {
			sections[0].ExplicitID = id
		}
	} else if _, ok := meta["id"]; ok && len(sections) > 1 {
		slog.Debug("front matter id ignored for multi-section file",
			slog.String("file", sourceFile),
		)
	}

	return sections, nil
}

func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimRight(line, "\r\n")

	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}

	if level == 0 || level > 6 {
		return 0, "", false
	}

	rest := trimmed[level:]
	if rest == "" || rest[0] != ' ' {
		return 0, "", false
	}

	return level, strings.TrimSpace(rest), true
}

// cloneMeta deep-copies front matter so every section owns its metadata.
// Overlay patches mutate VendorMetadata in place; a shared map would leak
// the patch into sibling sections and change their content hashes.
func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneMetaValue(v)
	}

	return out
}

func cloneMetaValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMeta(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneMetaValue(item)
		}

		return out
	default:
		return v
	}
}

var frontMatterDelim = []byte("---")

func splitFrontMatter(data []byte) (map[string]any, []byte, error) {
	trimmed := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, data, nil
	}

	rest := trimmed[len(frontMatterDelim):]

	idx := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if idx < 0 {
		return nil, data, nil
	}

	block := rest[:idx]
	body := rest[idx+1+len(frontMatterDelim):]

	if len(bytes.TrimSpace(block)) == 0 {
		return nil, body, nil
	}

	var meta map[string]any

	dec := yaml.NewDecoder(bytes.NewReader(block))

	err := dec.Decode(&meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse front matter: %w", err)
	}

	return meta, body, nil
}
