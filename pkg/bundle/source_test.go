package bundle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/bundle"
)

func TestParseMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("multiple headings", func(t *testing.T) {
		t.Parallel()

		doc := `## Style

Use tabs.

### Imports

Group stdlib first.
`

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 2)

		assert.Equal(t, "Style", sections[0].Heading)
		assert.Equal(t, 2, sections[0].Level)
		assert.Equal(t, "Use tabs.", sections[0].Content)
		assert.Equal(t, "rules.md", sections[0].SourceFile)

		assert.Equal(t, "Imports", sections[1].Heading)
		assert.Equal(t, 3, sections[1].Level)
	})

	t.Run("front matter becomes vendor metadata", func(t *testing.T) {
		t.Parallel()

		doc := `---
id: style-core
vendor: cursor
---
## Style

Use tabs.
`

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 1)

		assert.Equal(t, "style-core", sections[0].ExplicitID)
		assert.Equal(t, "style-core", sections[0].Fingerprint())
		assert.Equal(t, "cursor", sections[0].VendorMetadata["vendor"])
	})

	t.Run("front matter id ignored for multi-section files", func(t *testing.T) {
		t.Parallel()

		doc := `---
id: nope
---
## One

a

## Two

b
`

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 2)

		assert.Empty(t, sections[0].ExplicitID)
		assert.Empty(t, sections[1].ExplicitID)
	})

	t.Run("sections do not share front matter maps", func(t *testing.T) {
		t.Parallel()

		doc := `---
severity: info
labels:
  owner: platform
---
## One

a

## Two

b
`

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 2)

		before, err := sections[1].ContentHash()
		require.NoError(t, err)

		sections[0].VendorMetadata["severity"] = "critical"
		sections[0].VendorMetadata["labels"].(map[string]any)["owner"] = "security"

		assert.Equal(t, "info", sections[1].VendorMetadata["severity"])
		assert.Equal(t, "platform", sections[1].VendorMetadata["labels"].(map[string]any)["owner"])

		after, err := sections[1].ContentHash()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("content before first heading is dropped", func(t *testing.T) {
		t.Parallel()

		doc := "Preamble text.\n\n## Style\n\nUse tabs.\n"

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "Style", sections[0].Heading)
	})

	t.Run("hash marks inside content are not headings", func(t *testing.T) {
		t.Parallel()

		doc := "## Style\n\n#hashtag is not a heading\n####### too deep\n"

		sections, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Contains(t, sections[0].Content, "#hashtag")
		assert.Contains(t, sections[0].Content, "####### too deep")
	})

	t.Run("malformed front matter errors", func(t *testing.T) {
		t.Parallel()

		doc := "---\n: bad\n  indent: [\n---\n## A\n\nx\n"

		_, err := bundle.ParseMarkdown("rules.md", []byte(doc))
		require.Error(t, err)
	})
}

func TestDirSource_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-testing.md"),
		[]byte("## Testing\n\ntdd\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-style.md"),
		[]byte("## Style\n\ntabs\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"),
		[]byte("not markdown"), 0o600))

	src := bundle.NewDirSource(dir, false)

	sections, err := src.Load()
	require.NoError(t, err)
	require.Len(t, sections, 2)

	// Lexical file order.
	assert.Equal(t, "Style", sections[0].Heading)
	assert.Equal(t, "Testing", sections[1].Heading)
	assert.Equal(t, filepath.Join(dir, "10-style.md"), sections[0].SourceFile)
}
