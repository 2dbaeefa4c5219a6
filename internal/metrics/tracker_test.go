package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesRollingWindow(t *testing.T) {
	s := NewSeries("x", "", 3)
	assert.Equal(t, Summary{Name: "x"}, s.Summary())

	for _, ms := range []int{10, 20, 30, 40} {
		s.Observe(time.Duration(ms) * time.Millisecond)
	}
	sum := s.Summary()
	assert.Equal(t, uint64(4), sum.Count)
	// window holds 20, 30, 40
	assert.Equal(t, 30*time.Millisecond, sum.Mean)
	assert.Equal(t, 40*time.Millisecond, sum.Max)
	assert.InDelta(t, 33.33, sum.Rate, 0.01)
}

func TestTrackerObservers(t *testing.T) {
	tr := NewTracker(DefaultWindow)
	tr.ObserveTick(16 * time.Millisecond)
	tr.ObserveInference(100*time.Millisecond, nil)
	tr.ObserveInference(time.Second, errors.New("boom"))

	sums := tr.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, SeriesTick, sums[0].Name)
	assert.Equal(t, SeriesInference, sums[1].Name)
	assert.Equal(t, 100*time.Millisecond, sums[1].Mean)
	assert.Equal(t, uint64(1), sums[1].Errors)

	assert.Contains(t, tr.Format(), "inference: 10.0/s")
	assert.Contains(t, tr.Format(), "errors 1")
}

func TestTrackerUnknownSeries(t *testing.T) {
	tr := NewTracker(4)
	assert.Error(t, tr.Observe("missing", time.Second))

	tr.Register(NewSeries("capture", "camera read", 4))
	assert.NoError(t, tr.Observe("capture", time.Millisecond))
	assert.Len(t, tr.Summaries(), 3)
}
