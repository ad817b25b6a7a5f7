package overlay_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/overlay"
)

func testBundle() *bundle.Bundle {
	return &bundle.Bundle{
		ID:      "team",
		Version: "1.0.0",
		Props: map[string]any{
			"vendor": map[string]any{
				"cursor": map[string]any{"mode": "strict"},
			},
		},
		Sections: []*bundle.Section{
			{Heading: "Code Style", Content: "Use tabs.", Level: 2},
			{Heading: "Testing", Content: "Write table tests.", Level: 2},
			{Heading: "Reviews", Content: "Two approvals.", Level: 2},
		},
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("set by index", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		res, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "sections[0]", Set: map[string]any{"content": "Use spaces."}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Applied)
		assert.Empty(t, res.Unresolved)

		assert.Equal(t, "Use spaces.", b.Sections[0].Content)
	})

	t.Run("set by heading is case insensitive", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "sections[heading=code style]", Set: map[string]any{"level": 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, b.Sections[0].Level)
	})

	t.Run("set by fingerprint", func(t *testing.T) {
		t.Parallel()

		b := testBundle()
		fp := b.Sections[1].Fingerprint()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{
				Selector: fmt.Sprintf("rule[id=%s]", fp),
				Set:      map[string]any{"vendorMetadata.severity": "error"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "error", b.Sections[1].VendorMetadata["severity"])
	})

	t.Run("set by path creates containers on write", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "export.cursor", Set: map[string]any{"enabled": true}},
		})
		require.NoError(t, err)

		export, ok := b.Props["export"].(map[string]any)
		require.True(t, ok)
		cursor, ok := export["cursor"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, cursor["enabled"])
	})

	t.Run("remove keys", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "vendor.cursor", Remove: []string{"mode"}},
		})
		require.NoError(t, err)

		cursor := b.Props["vendor"].(map[string]any)["cursor"].(map[string]any)
		assert.NotContains(t, cursor, "mode")
	})

	t.Run("remove-only overlay never creates containers", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		res, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "missing.path", Remove: []string{"key"}},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"missing.path"}, res.Unresolved)
		assert.NotContains(t, b.Props, "missing")
	})

	t.Run("unresolved selector is reported not fatal", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		res, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "sections[99]", Set: map[string]any{"content": "x"}},
			{Selector: "sections[1]", Set: map[string]any{"content": "applied"}},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"sections[99]"}, res.Unresolved)
		assert.Equal(t, 1, res.Applied)
		assert.Equal(t, "applied", b.Sections[1].Content)
	})

	t.Run("malformed selector aborts", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "sections[nope]", Set: map[string]any{"content": "x"}},
		})
		require.ErrorIs(t, err, overlay.ErrInvalidSelector)
	})

	t.Run("invalid patch value", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		_, err := overlay.Apply(b, []overlay.Overlay{
			{Selector: "sections[0]", Set: map[string]any{"content": 42}},
		})
		require.ErrorIs(t, err, overlay.ErrInvalidPatch)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		overlays := []overlay.Overlay{
			{Selector: "sections[0]", Set: map[string]any{"content": "patched", "vendorMetadata.weight": 5}},
			{Selector: "sections[heading=Testing]", Remove: []string{"level"}},
			{Selector: "vendor.cursor", Set: map[string]any{"mode": "lenient"}},
		}

		once := testBundle()
		_, err := overlay.Apply(once, overlays)
		require.NoError(t, err)

		twice := testBundle()
		_, err = overlay.Apply(twice, overlays)
		require.NoError(t, err)
		_, err = overlay.Apply(twice, overlays)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	})
}

func TestApply_OrderIsConfigurationOrder(t *testing.T) {
	t.Parallel()

	b := testBundle()

	_, err := overlay.Apply(b, []overlay.Overlay{
		{Selector: "sections[0]", Set: map[string]any{"content": "first"}},
		{Selector: "sections[0]", Set: map[string]any{"content": "second"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "second", b.Sections[0].Content)
}

func TestFindStale(t *testing.T) {
	t.Parallel()

	t.Run("index survives while in bounds", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: "sections[0]"},
			{Selector: "sections[99]"},
		}, b)

		assert.Equal(t, []string{"sections[99]"}, stale)
	})

	t.Run("fingerprint survives reorder", func(t *testing.T) {
		t.Parallel()

		b := testBundle()
		fp := b.Sections[2].Fingerprint()

		// Reorder sections; the fingerprint stays resolvable.
		b.Sections[0], b.Sections[2] = b.Sections[2], b.Sections[0]

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: fmt.Sprintf("rule[id=%s]", fp)},
		}, b)

		assert.Empty(t, stale)
	})

	t.Run("rename marks heading and fingerprint selectors stale", func(t *testing.T) {
		t.Parallel()

		b := testBundle()
		fp := b.Sections[0].Fingerprint()

		b.Sections[0].Heading = "Formatting"

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: "sections[heading=Code Style]"},
			{Selector: fmt.Sprintf("rule[id=%s]", fp)},
		}, b)

		assert.Len(t, stale, 2)
	})

	t.Run("body edit does not mark heading selector stale", func(t *testing.T) {
		t.Parallel()

		b := testBundle()
		b.Sections[0].Content = "Completely reworded body."

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: "sections[heading=Code Style]"},
		}, b)

		assert.Empty(t, stale)
	})

	t.Run("malformed selector is stale", func(t *testing.T) {
		t.Parallel()

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: "sections["},
		}, testBundle())

		assert.Equal(t, []string{"sections["}, stale)
	})

	t.Run("missing read path is stale, not an error", func(t *testing.T) {
		t.Parallel()

		b := testBundle()

		stale := overlay.FindStale([]overlay.Overlay{
			{Selector: "vendor.cursor"},
			{Selector: "vendor.zed"},
		}, b)

		assert.Equal(t, []string{"vendor.zed"}, stale)
	})
}

func TestSectionsZeroAlwaysFirstByOrder(t *testing.T) {
	t.Parallel()

	b := testBundle()

	// Reorder: heading text moves, but sections[0] still targets the first
	// section by current order.
	b.Sections[0], b.Sections[1] = b.Sections[1], b.Sections[0]

	_, err := overlay.Apply(b, []overlay.Overlay{
		{Selector: "sections[0]", Set: map[string]any{"vendorMetadata.first": true}},
	})
	require.NoError(t, err)

	assert.Equal(t, true, b.Sections[0].VendorMetadata["first"])
	assert.Equal(t, "Testing", b.Sections[0].Heading)
}
