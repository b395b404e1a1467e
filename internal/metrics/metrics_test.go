package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/internal/metrics"
	"github.com/aretw0/tastewalk/pkg/adapters/lastfm"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/tags"
	"github.com/aretw0/tastewalk/pkg/walk"
)

var (
	_ walk.Recorder   = (*metrics.Metrics)(nil)
	_ tags.Recorder   = (*metrics.Metrics)(nil)
	_ lastfm.Observer = (*metrics.Metrics)(nil)
)

func TestMetrics_RecordStep(t *testing.T) {
	m := metrics.New()

	m.RecordStep(walk.Outcome{Move: walk.MoveAdvance, Choice: walk.ChoiceUniform, Length: 2})
	m.RecordStep(walk.Outcome{Move: walk.MoveBack, Choice: walk.ChoiceStay, Fallbacks: 2, Length: 3})
	m.RecordStep(walk.Outcome{Move: walk.MoveAdvance, Choice: walk.ChoiceUniform, Length: 4})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Steps.WithLabelValues("advance", "uniform")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("back", "stay")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fallbacks))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.WalkLength))
}

func TestMetrics_SourceAndTags(t *testing.T) {
	m := metrics.New()

	m.RecordGathered(core.TagDocument{})
	m.RequestCompleted("artist.getSimilar", lastfm.ResultOK)
	m.RequestCompleted("artist.getSimilar", lastfm.ResultOK)
	m.RequestCompleted("artist.getTopTags", lastfm.ResultRejected)
	m.BreakerStateChanged("lastfm-api", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TagsGathered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("artist.getSimilar", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("artist.getTopTags", "rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("lastfm-api")))

	problems, err := testutil.GatherAndLint(m.Registry())
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := metrics.New()
	m.RecordStep(walk.Outcome{Move: walk.MoveAdvance, Choice: walk.ChoiceWeighted, Length: 2})

	path := filepath.Join(t.TempDir(), "tastewalk.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tastewalk_steps_total{move="advance",outcome="weighted"} 1`)
}
