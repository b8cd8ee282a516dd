package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
)

// SSE event names.
const (
	FrameEvent    = "event"
	FrameCue      = "cue"
	FrameDiff     = "diff"
	FrameRedirect = "redirect"
)

// Frame is one Server-Sent Event.
type Frame struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Frame]filter // VisitorID -> channels and their filters
	logger      *slog.Logger
}

// filter keeps only the listed frame kinds; nil keeps everything.
type filter map[string]bool

func (f filter) keeps(event string) bool {
	return f == nil || f[event]
}

// NewStreamManager creates a manager with no subscribers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Frame]filter),
		logger:      logger,
	}
}

// Subscribe registers a channel for visitor receiving the given frame kinds,
// or every kind when none are given. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(visitor string, kinds ...string) (<-chan Frame, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var f filter
	if len(kinds) > 0 {
		f = make(filter, len(kinds))
		for _, k := range kinds {
			f[k] = true
		}
	}

	ch := make(chan Frame, 64)
	if _, ok := sm.subscribers[visitor]; !ok {
		sm.subscribers[visitor] = make(map[chan<- Frame]filter)
	}
	sm.subscribers[visitor][ch] = f

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[visitor]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, visitor)
				}
			}
		})
	}
}

// Subscribers returns how many streams visitor has open.
func (sm *StreamManager) Subscribers(visitor string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[visitor])
}

// Publish marshals v and broadcasts it under event.
func (sm *StreamManager) Publish(visitor, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: failed to marshal frame", "event", event, "err", err)
		return
	}
	sm.Broadcast(visitor, Frame{Event: event, Data: string(data)})
}

// Broadcast sends f to every stream of visitor without blocking.
func (sm *StreamManager) Broadcast(visitor string, f Frame) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, keep := range sm.subscribers[visitor] {
		if !keep.keeps(f.Event) {
			continue
		}
		select {
		case ch <- f:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "visitor_id", visitor, "event", f.Event)
		}
	}
}

// cueSink forwards cues to the visitor's streams.
type cueSink struct {
	streams *StreamManager
	visitor string
	now     func() time.Time
}

func (s cueSink) Play(c domain.Cue) {
	s.streams.Publish(s.visitor, FrameCue, domain.CueEvent{Timestamp: s.now(), Cue: c})
}

func writeFrame(w http.ResponseWriter, f Frame) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Event, f.Data)
}

// events handles GET /api/events. The optional watch query keeps only the
// listed frame kinds, e.g. ?watch=cue,redirect.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}
	id := IdentityFrom(r.Context())

	var kinds []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			kinds = append(kinds, strings.TrimSpace(field))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(id.VisitorID, kinds...)
	defer cancel()

	writeFrame(w, Frame{Event: "ping", Data: "connected"})
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "visitor_id", id.VisitorID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "visitor_id", id.VisitorID)
			return
		case f, ok := <-ch:
			if !ok {
				return
			}
			writeFrame(w, f)
			flusher.Flush()
		}
	}
}
