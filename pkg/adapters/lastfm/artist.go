package lastfm

import (
	"context"
	"net/url"
	"strconv"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Similar is a neighbor with the similarity score the service reports.
type Similar struct {
	Artist core.Artist
	Match  float64
}

// SimilarArtists returns the artists similar to a, most similar first.
func (c *Client) SimilarArtists(ctx context.Context, a core.Artist, limit int) ([]Similar, error) {
	var resp similarResponse
	if err := c.call(ctx, "artist.getSimilar", artistParams(a, limit), &resp); err != nil {
		return nil, err
	}
	out := make([]Similar, 0, len(resp.SimilarArtists.Artist))
	for _, s := range resp.SimilarArtists.Artist {
		out = append(out, Similar{Artist: s.artist(), Match: float64(s.Match)})
	}
	return out, nil
}

// Neighbors returns the similar artists of a, without scores.
func (c *Client) Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error) {
	similar, err := c.SimilarArtists(ctx, a, limit)
	if err != nil {
		return nil, err
	}
	return artistsOf(similar), nil
}

// TopTags returns the top tags of a, heaviest first.
func (c *Client) TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error) {
	var resp topTagsResponse
	if err := c.call(ctx, "artist.getTopTags", artistParams(a, 0), &resp); err != nil {
		return nil, err
	}
	tags := make([]core.Tag, 0, len(resp.TopTags.Tag))
	for _, t := range resp.TopTags.Tag {
		if limit > 0 && len(tags) == limit {
			break
		}
		tags = append(tags, core.Tag{Name: t.Name, Weight: int(t.Count)})
	}
	return tags, nil
}

// SearchArtist returns the artists matching name, best match first.
func (c *Client) SearchArtist(ctx context.Context, name string, limit int) ([]core.Artist, error) {
	params := url.Values{}
	params.Set("artist", name)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp searchResponse
	if err := c.call(ctx, "artist.search", params, &resp); err != nil {
		return nil, err
	}
	out := make([]core.Artist, 0, len(resp.Results.ArtistMatches.Artist))
	for _, a := range resp.Results.ArtistMatches.Artist {
		out = append(out, a.artist())
	}
	return out, nil
}

func (a artistJSON) artist() core.Artist {
	return core.Artist{Name: a.Name, MBID: a.MBID, URL: a.URL}
}

func artistsOf(similar []Similar) []core.Artist {
	out := make([]core.Artist, len(similar))
	for i, s := range similar {
		out[i] = s.Artist
	}
	return out
}
