package source

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Resetter is notified after every successful source switch
type Resetter interface {
	Reset()
}

// Registry owns the input sources and keeps exactly one of them open
type Registry struct {
	sources  map[Kind]Source
	current  Source
	resetter Resetter
	logger   logrus.FieldLogger
}

func NewRegistry(resetter Resetter, logger logrus.FieldLogger, sources ...Source) *Registry {
	r := &Registry{
		sources:  make(map[Kind]Source, len(sources)),
		resetter: resetter,
		logger:   logger.WithField("component", "source_registry"),
	}
	for _, s := range sources {
		r.sources[s.Kind()] = s
	}
	return r
}

// Current returns the active source, nil before the first successful switch
func (r *Registry) Current() Source { return r.current }

// CurrentKind returns the tag of the active source
func (r *Registry) CurrentKind() (Kind, bool) {
	if r.current == nil {
		return 0, false
	}
	return r.current.Kind(), true
}

// Get returns the registered source of the given kind
func (r *Registry) Get(kind Kind) (Source, bool) {
	s, ok := r.sources[kind]
	return s, ok
}

// SwitchTo closes the current source, then opens and starts the requested
// one. Only one capture device may be open at a time, so the outgoing source
// is always released before the incoming one is opened. When the new source
// cannot be opened the previous one is reopened and stays current.
func (r *Registry) SwitchTo(kind Kind) error {
	next, ok := r.sources[kind]
	if !ok {
		return fmt.Errorf("no %s source registered", kind)
	}

	prev := r.current
	if prev != nil {
		prev.Stop()
		prev.Close()
	}

	if err := next.Open(); err != nil {
		next.Close()
		r.logger.WithError(err).WithField("source", kind).Warn("could not open source")
		if prev != nil {
			if rerr := prev.Open(); rerr != nil {
				r.logger.WithError(rerr).WithField("source", prev.Kind()).Error("could not reopen previous source")
			} else {
				prev.Play()
			}
		}
		return fmt.Errorf("switch to %s: %w", kind, err)
	}

	next.Play()
	r.current = next
	if r.resetter != nil {
		r.resetter.Reset()
	}
	r.logger.WithField("source", kind).Info("source switched")
	return nil
}

// Close releases the active source
func (r *Registry) Close() {
	if r.current != nil {
		r.current.Stop()
		r.current.Close()
	}
}
