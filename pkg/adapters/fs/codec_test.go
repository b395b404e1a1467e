package fs_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/adapters/fs"
	"github.com/aretw0/tastewalk/pkg/core"
)

func TestCodecs_TagCollection(t *testing.T) {
	coll := core.TagCollection{
		{Artist: core.Artist{Name: "John Coltrane", MBID: "b625448e"}, Tags: []core.Tag{{Name: "jazz", Weight: 100}, {Name: "saxophone", Weight: 61}}},
		{Artist: core.Artist{Name: "Alice Coltrane"}, Tags: nil},
	}

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			codec, err := fs.CodecFor(format)
			require.NoError(t, err)

			data, err := codec.Marshal(coll)
			require.NoError(t, err)

			var got core.TagCollection
			require.NoError(t, codec.Unmarshal(data, &got))
			if diff := cmp.Diff(coll[0], got[0]); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, "Alice Coltrane", got[1].Artist.Name)
			assert.Empty(t, got[1].Tags)
		})
	}
}

func TestCodecs_RejectDamagedData(t *testing.T) {
	cases := map[string][]string{
		"json": {"", `[{"name":"A"}`, `{"unexpected":true}`},
		"yaml": {"", "- name: [unterminated"},
	}
	for format, inputs := range cases {
		codec, err := fs.CodecFor(format)
		require.NoError(t, err)
		for _, in := range inputs {
			var w core.Walk
			assert.Error(t, codec.Unmarshal([]byte(in), &w), "%s input %q", format, in)
		}
	}

	_, err := fs.CodecFor("pickle")
	assert.Error(t, err)
}
