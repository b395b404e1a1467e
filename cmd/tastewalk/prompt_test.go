package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/core"
)

func TestPromptConfirmer(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "Empty Answer Is Yes", input: "\n", want: true},
		{name: "Yes", input: "y\n", want: true},
		{name: "No", input: "N\n", want: false},
		{name: "Asks Again On Nonsense", input: "maybe\nno\n", want: false},
		{name: "Last Line Without Newline", input: "yes", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := promptConfirmer(strings.NewReader(tc.input), &out).Confirm(ctx, "Create")
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.Contains(t, out.String(), "Create? [Y/n]")
		})
	}

	t.Run("End Of Input Cancels", func(t *testing.T) {
		_, err := promptConfirmer(strings.NewReader(""), &bytes.Buffer{}).Confirm(ctx, "Create")
		assert.ErrorIs(t, err, core.ErrCancelled)
	})
}
