package lastfm

import (
	"context"
	"fmt"

	"github.com/aretw0/tastewalk/pkg/core"
)

// SeedResolver returns a function resolving name to the best search match,
// suitable for walk.WithSeedResolver.
func SeedResolver(api API, name string) func(ctx context.Context) (core.Artist, error) {
	return func(ctx context.Context) (core.Artist, error) {
		matches, err := api.SearchArtist(ctx, name, 1)
		if err != nil {
			return core.Artist{}, fmt.Errorf("search %q: %w", name, err)
		}
		if len(matches) == 0 {
			return core.Artist{}, fmt.Errorf("%w: no match for %q", core.ErrArtistNotFound, name)
		}
		return matches[0], nil
	}
}
