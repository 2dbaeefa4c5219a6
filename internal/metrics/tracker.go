package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	SeriesTick      = "tick"
	SeriesInference = "inference"

	DefaultWindow = 60
)

// Tracker manages the registered timing series
type Tracker struct {
	mu     sync.RWMutex
	series map[string]*Series
	order  []string
}

// NewTracker creates a tracker with the tick and inference series
func NewTracker(window int) *Tracker {
	t := &Tracker{series: make(map[string]*Series)}
	t.Register(NewSeries(SeriesTick, "interval between update ticks", window))
	t.Register(NewSeries(SeriesInference, "style transfer duration", window))
	return t
}

// Register adds a series; an existing series of the same name is replaced
func (t *Tracker) Register(s *Series) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.series[s.Name()]; !ok {
		t.order = append(t.order, s.Name())
	}
	t.series[s.Name()] = s
}

// Observe records a duration on the named series
func (t *Tracker) Observe(name string, d time.Duration) error {
	t.mu.RLock()
	s, ok := t.series[name]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("series not found: %s", name)
	}
	s.Observe(d)
	return nil
}

// ObserveInference is called from the inference worker
func (t *Tracker) ObserveInference(d time.Duration, err error) {
	t.mu.RLock()
	s := t.series[SeriesInference]
	t.mu.RUnlock()
	if s == nil {
		return
	}
	if err != nil {
		s.ObserveError()
		return
	}
	s.Observe(d)
}

// ObserveTick records the interval since the previous tick
func (t *Tracker) ObserveTick(d time.Duration) {
	_ = t.Observe(SeriesTick, d)
}

// Summaries returns one summary per series in registration order
func (t *Tracker) Summaries() []Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Summary, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.series[name].Summary())
	}
	return out
}

// Format renders the summaries for the debug overlay
func (t *Tracker) Format() string {
	var b strings.Builder
	for _, s := range t.Summaries() {
		fmt.Fprintf(&b, "%s: %.1f/s avg %s max %s", s.Name, s.Rate,
			s.Mean.Round(100*time.Microsecond), s.Max.Round(100*time.Microsecond))
		if s.Errors > 0 {
			fmt.Fprintf(&b, " errors %d", s.Errors)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
