// Package cue provides ports.CueSink implementations.
package cue

import (
	"log/slog"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Func adapts a plain function to ports.CueSink.
type Func func(domain.Cue)

// Play calls f.
func (f Func) Play(c domain.Cue) { f(c) }

// Log writes every cue to a structured logger at debug level.
type Log struct {
	Logger *slog.Logger
}

// Play logs the cue.
func (l Log) Play(c domain.Cue) {
	if l.Logger == nil {
		return
	}
	l.Logger.Debug("Cue", "cue", string(c))
}

// Multi fans a cue out to several sinks in order.
type Multi []ports.CueSink

// Play forwards c to every sink.
func (m Multi) Play(c domain.Cue) {
	for _, s := range m {
		s.Play(c)
	}
}

// Recorder keeps every cue it receives. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	cues []domain.Cue
}

// Play records c.
func (r *Recorder) Play(c domain.Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

// Cues returns a copy of the recorded cues.
func (r *Recorder) Cues() []domain.Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Cue(nil), r.cues...)
}

// Count returns how many times c was played.
func (r *Recorder) Count(c domain.Cue) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.cues {
		if got == c {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = nil
}
