package lastfm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/adapters/lastfm"
	"github.com/aretw0/tastewalk/pkg/core"
)

func newServer(t *testing.T, handler http.HandlerFunc) *lastfm.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return lastfm.NewClient(lastfm.Config{
		APIKey:         "secret",
		BaseURL:        srv.URL + "/2.0/",
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestClient_SimilarArtists(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "artist.getSimilar", q.Get("method"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "Cardiacs", q.Get("artist"))
		assert.Equal(t, "2", q.Get("limit"))
		_, _ = w.Write([]byte(`{"similarartists":{"artist":[
			{"name":"Henry Cow","mbid":"abc","match":"1","url":"https://www.last.fm/music/Henry+Cow"},
			{"name":"Gentle Giant","mbid":"","match":0.42,"url":""}
		],"@attr":{"artist":"Cardiacs"}}}`))
	})

	similar, err := client.SimilarArtists(context.Background(), core.Artist{Name: "Cardiacs"}, 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "Henry Cow", similar[0].Artist.Name)
	assert.Equal(t, "abc", similar[0].Artist.MBID)
	assert.InDelta(t, 1.0, similar[0].Match, 1e-9)
	assert.InDelta(t, 0.42, similar[1].Match, 1e-9)

	neighbors, err := client.Neighbors(context.Background(), core.Artist{Name: "Cardiacs"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.Artist{
		{Name: "Henry Cow", MBID: "abc", URL: "https://www.last.fm/music/Henry+Cow"},
		{Name: "Gentle Giant"},
	}, neighbors)
}

func TestClient_EmptyAndSingleLists(t *testing.T) {
	t.Run("Empty Neighborhood", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"similarartists":{"artist":"","@attr":{"artist":"X"}}}`))
		})
		n, err := client.Neighbors(context.Background(), core.Artist{Name: "X"}, 100)
		require.NoError(t, err)
		assert.Empty(t, n)
	})

	t.Run("Single Tag As Object", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"toptags":{"tag":{"name":"zeuhl","count":"100"}}}`))
		})
		tags, err := client.TopTags(context.Background(), core.Artist{Name: "Magma"}, 100)
		require.NoError(t, err)
		assert.Equal(t, []core.Tag{{Name: "zeuhl", Weight: 100}}, tags)
	})
}

func TestClient_TopTagsLimit(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist.getTopTags", r.URL.Query().Get("method"))
		assert.Equal(t, "mbid-1", r.URL.Query().Get("mbid"))
		_, _ = w.Write([]byte(`{"toptags":{"tag":[
			{"name":"progressive rock","count":100},
			{"name":"art rock","count":61},
			{"name":"punk","count":12}
		]}}`))
	})

	tags, err := client.TopTags(context.Background(), core.Artist{MBID: "mbid-1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.Tag{{Name: "progressive rock", Weight: 100}, {Name: "art rock", Weight: 61}}, tags)
}

func TestClient_SearchArtist(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist.search", r.URL.Query().Get("method"))
		assert.Equal(t, "john coltrane", r.URL.Query().Get("artist"))
		_, _ = w.Write([]byte(`{"results":{"artistmatches":{"artist":[
			{"name":"John Coltrane","mbid":"b625448e","listeners":"1000"}
		]}}}`))
	})

	seed, err := lastfm.SeedResolver(client, "john coltrane")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Artist{Name: "John Coltrane", MBID: "b625448e"}, seed)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown Artist", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":6,"message":"The artist you supplied could not be found"}`))
		})
		_, err := client.Neighbors(ctx, core.Artist{Name: "nobody"}, 10)
		assert.True(t, lastfm.IsNotFound(err))
		assert.False(t, errors.Is(err, core.ErrSourceUnavailable))
	})

	t.Run("Service Offline", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":11,"message":"Service Offline"}`))
		})
		_, err := client.TopTags(ctx, core.Artist{Name: "a"}, 10)
		assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
	})

	t.Run("Server Error Without Body", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.TopTags(ctx, core.Artist{Name: "a"}, 10)
		assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
	})

	t.Run("Invalid Key Is Not Retryable", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":10,"message":"Invalid API key"}`))
		})
		_, err := client.TopTags(ctx, core.Artist{Name: "a"}, 10)
		require.Error(t, err)
		assert.False(t, errors.Is(err, core.ErrSourceUnavailable))
		assert.Contains(t, err.Error(), "Invalid API key")
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := lastfm.NewClient(lastfm.Config{BaseURL: srv.URL})
		_, err := client.TopTags(ctx, core.Artist{Name: "a"}, 10)
		assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
	})
}

func TestClient_RateLimitBackoff(t *testing.T) {
	var calls atomic.Int32
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"toptags":{"tag":[]}}`))
	})

	tags, err := client.TopTags(context.Background(), core.Artist{Name: "a"}, 10)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.Equal(t, int32(3), calls.Load())

	t.Run("Gives Up", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := client.TopTags(context.Background(), core.Artist{Name: "a"}, 10)
		assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
	})
}

func TestClient_Cancelled(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Neighbors(ctx, core.Artist{Name: "a"}, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}
