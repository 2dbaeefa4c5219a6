// Runtime timing metrics for the update loop and the inference worker
package metrics

import (
	"sync"
	"time"
)

// Summary is a point-in-time view of one series
type Summary struct {
	Name   string
	Count  uint64
	Errors uint64
	Mean   time.Duration
	Max    time.Duration
	Rate   float64 // events per second derived from the mean
}

// Series keeps a rolling window of durations
type Series struct {
	name        string
	description string

	mu      sync.Mutex
	samples []time.Duration
	next    int
	filled  bool
	count   uint64
	errors  uint64
}

func NewSeries(name, description string, window int) *Series {
	if window < 1 {
		window = 1
	}
	return &Series{
		name:        name,
		description: description,
		samples:     make([]time.Duration, window),
	}
}

func (s *Series) Name() string { return s.name }
func (s *Series) Description() string { return s.description }

func (s *Series) Observe(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[s.next] = d
	s.next++
	if s.next == len(s.samples) {
		s.next = 0
		s.filled = true
	}
	s.count++
}

func (s *Series) ObserveError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

func (s *Series) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.filled {
		n = len(s.samples)
	}
	sum := Summary{Name: s.name, Count: s.count, Errors: s.errors}
	if n == 0 {
		return sum
	}
	var total time.Duration
	for _, d := range s.samples[:n] {
		total += d
		if d > sum.Max {
			sum.Max = d
		}
	}
	sum.Mean = total / time.Duration(n)
	if sum.Mean > 0 {
		sum.Rate = float64(time.Second) / float64(sum.Mean)
	}
	return sum
}
