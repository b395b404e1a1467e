package lastfm

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// number decodes values the API sends either as JSON numbers or as strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

// list decodes collections the API collapses to a bare object when they hold
// a single element, or to an empty string when they hold none.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte(`""`)):
		*l = nil
		return nil
	case b[0] == '{':
		var one T
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*l = list[T]{one}
		return nil
	}
	var many []T
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

type artistJSON struct {
	Name  string `json:"name"`
	MBID  string `json:"mbid"`
	URL   string `json:"url"`
	Match number `json:"match"`
}

type similarResponse struct {
	SimilarArtists struct {
		Artist list[artistJSON] `json:"artist"`
	} `json:"similarartists"`
}

type tagJSON struct {
	Name  string `json:"name"`
	Count number `json:"count"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag list[tagJSON] `json:"tag"`
	} `json:"toptags"`
}

type searchResponse struct {
	Results struct {
		ArtistMatches struct {
			Artist list[artistJSON] `json:"artist"`
		} `json:"artistmatches"`
	} `json:"results"`
}
