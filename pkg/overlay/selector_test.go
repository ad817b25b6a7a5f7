package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/overlay"
)

func TestParseSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want    any
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "index",
			text: "sections[0]",
			want: overlay.ByIndex{},
		},
		{
			name: "index multi digit",
			text: "sections[42]",
			want: overlay.ByIndex{},
		},
		{
			name: "heading",
			text: "sections[heading=Code Style]",
			want: overlay.ByHeading{},
		},
		{
			name: "fingerprint",
			text: "rule[id=a1b2c3d4e5f60718]",
			want: overlay.ByFingerprint{},
		},
		{
			name: "top level path",
			text: "version",
			want: overlay.ByPath{},
		},
		{
			name: "nested path",
			text: "vendor.cursor.mode",
			want: overlay.ByPath{},
		},
		{
			name:    "negative index",
			text:    "sections[-1]",
			wantErr: true,
		},
		{
			name:    "non numeric index",
			text:    "sections[first]",
			wantErr: true,
		},
		{
			name:    "empty heading",
			text:    "sections[heading=]",
			wantErr: true,
		},
		{
			name:    "missing close bracket",
			text:    "sections[0",
			wantErr: true,
		},
		{
			name:    "rule without id",
			text:    "rule[a1b2]",
			wantErr: true,
		},
		{
			name:    "empty selector",
			text:    "",
			wantErr: true,
		},
		{
			name:    "empty path segment",
			text:    "a..b",
			wantErr: true,
		},
		{
			name:    "case sensitive keyword",
			text:    "Sections[0]",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sel, err := overlay.ParseSelector(tt.text)

			if tt.wantErr {
				require.ErrorIs(t, err, overlay.ErrInvalidSelector)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, sel)
			assert.Equal(t, tt.text, sel.String())
		})
	}
}

func TestParseSelector_Fields(t *testing.T) {
	t.Parallel()

	sel, err := overlay.ParseSelector("sections[heading=Code Style]")
	require.NoError(t, err)

	byHeading, ok := sel.(overlay.ByHeading)
	require.True(t, ok)
	assert.Equal(t, "Code Style", byHeading.Heading)

	sel, err = overlay.ParseSelector("rule[id=abc123]")
	require.NoError(t, err)

	byFP, ok := sel.(overlay.ByFingerprint)
	require.True(t, ok)
	assert.Equal(t, "abc123", byFP.ID)

	sel, err = overlay.ParseSelector("sections[7]")
	require.NoError(t, err)

	byIdx, ok := sel.(overlay.ByIndex)
	require.True(t, ok)
	assert.Equal(t, 7, byIdx.Index)

	sel, err = overlay.ParseSelector("vendor.cursor")
	require.NoError(t, err)

	byPath, ok := sel.(overlay.ByPath)
	require.True(t, ok)
	assert.Equal(t, []string{"vendor", "cursor"}, byPath.Segments)
}
