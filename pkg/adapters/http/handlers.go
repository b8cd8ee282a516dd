package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/aretw0/funnel/pkg/adapters/cue"
	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/funnel"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/script"
	"github.com/aretw0/funnel/pkg/wizard"
	"github.com/go-chi/chi/v5"
)

// FrameState carries a full wizard snapshot.
const FrameState = "state"

// PageResponse is the reply of GET /api/pages/{page}.
type PageResponse struct {
	Decision funnel.Decision `json:"decision"`
	Reached  funnel.Stage    `json:"reached"`
	Name     string          `json:"name,omitempty"`
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
	Source   string `json:"source,omitempty"`
}

// ContactResponse is the reply of a successful contact capture.
type ContactResponse struct {
	Decision funnel.Decision `json:"decision"`
	Cues     []domain.Cue    `json:"cues"`
}

// MountResponse is the reply of a mount request.
type MountResponse struct {
	Decision      funnel.Decision           `json:"decision"`
	Conversation  *domain.ConversationState `json:"conversation,omitempty"`
	Customization *domain.WizardState       `json:"customization,omitempty"`
}

// ContinueResponse is the reply of a continue request.
type ContinueResponse struct {
	Outcome       string                    `json:"outcome"`
	Redirect      *funnel.Decision          `json:"redirect,omitempty"`
	Conversation  *domain.ConversationState `json:"conversation,omitempty"`
	Customization *domain.WizardState       `json:"customization,omitempty"`
}

// SelectRequest is the body of POST /api/customization/select.
// Value picks a choice directly; Prompt is classified into one.
type SelectRequest struct {
	Value  string `json:"value,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// SelectResponse is the reply of a selection.
type SelectResponse struct {
	Value         string             `json:"value"`
	Customization domain.WizardState `json:"customization"`
}

// BackResponse is the reply of POST /api/customization/back.
type BackResponse struct {
	Moved         bool               `json:"moved"`
	Customization domain.WizardState `json:"customization"`
}

// OfferResponse is the reply of GET /api/offer.
type OfferResponse struct {
	Decision    funnel.Decision `json:"decision"`
	Name        string          `json:"name,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

func (s *Server) enter(w http.ResponseWriter, r *http.Request, page funnel.Page) (funnel.State, funnel.Decision, bool) {
	id := IdentityFrom(r.Context())
	st, d, err := s.ctl.Enter(r.Context(), id.VisitorID, id.SessionID, page)
	if err != nil {
		s.logger.Error("Failed to load visitor", "visitor_id", id.VisitorID, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return funnel.State{}, funnel.Decision{}, false
	}
	return st, d, true
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (funnel.State, bool) {
	id := IdentityFrom(r.Context())
	st, err := s.ctl.Load(r.Context(), id.VisitorID, id.SessionID)
	if err != nil {
		s.logger.Error("Failed to load visitor", "visitor_id", id.VisitorID, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return funnel.State{}, false
	}
	return st, true
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	page, err := funnel.ParsePage(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	st, d, ok := s.enter(w, r, page)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PageResponse{Decision: d, Reached: st.Reached(), Name: st.Name()})
}

func (s *Server) startFunnel(w http.ResponseWriter, r *http.Request) {
	st, ok := s.load(w, r)
	if !ok {
		return
	}
	d, err := s.ctl.StartFunnel(r.Context(), st)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) captureContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	switch req.Source {
	case "":
		req.Source = domain.SourceContactPage
	case domain.SourceContactPage, domain.SourceExitPopup:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown source %q", req.Source))
		return
	}

	st, d, ok := s.enter(w, r, funnel.PageContact)
	if !ok {
		return
	}
	if !d.Render() {
		writeJSON(w, http.StatusOK, ContactResponse{Decision: d, Cues: []domain.Cue{}})
		return
	}
	d, captured, err := s.ctl.CaptureContact(r.Context(), st, domain.Contact{Name: req.Name, Whatsapp: req.Whatsapp}, req.Source)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp := ContactResponse{Decision: d, Cues: []domain.Cue{}}
	if captured {
		resp.Cues = []domain.Cue{domain.CueLevelUp, domain.CueWhoosh}
	}
	writeJSON(w, http.StatusOK, resp)
}

// sinkFor sends cues to the visitor's streams, counted when metrics are on.
func (s *Server) sinkFor(visitor string) ports.CueSink {
	var sink ports.CueSink = cueSink{streams: s.streams, visitor: visitor, now: s.now}
	if s.metrics != nil {
		sink = s.metrics.CueSink(sink)
	}
	return cue.Multi{sink, cue.Log{Logger: s.logger}}
}

func (s *Server) eventsFor(visitor string, extra func(domain.Event)) func(domain.Event) {
	return observability.FanOut(
		func(evt domain.Event) { s.streams.Publish(visitor, FrameEvent, evt) },
		s.metrics.ObserveEvent,
		extra,
	)
}

// diffTracker publishes the change between consecutive conversation snapshots.
type diffTracker struct {
	mu   sync.Mutex
	last *domain.ConversationState
}

func (t *diffTracker) next(cur domain.ConversationState) *domain.StateDiff {
	t.mu.Lock()
	defer t.mu.Unlock()
	diff := domain.Diff(t.last, &cur)
	t.last = &cur
	return diff
}

func (s *Server) mountConversation(w http.ResponseWriter, r *http.Request) {
	st, d, ok := s.enter(w, r, funnel.PageConversation)
	if !ok {
		return
	}
	if !d.Render() {
		writeJSON(w, http.StatusOK, MountResponse{Decision: d})
		return
	}

	sc, err := s.scripts.Script(d.ScriptID)
	if err == nil {
		sc, err = script.Render(sc, script.Vars{Name: st.Name()})
	}
	if err != nil {
		s.logger.Error("Failed to prepare script", "script", d.ScriptID, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	visitor := st.VisitorID
	var eng *conversation.Engine
	tracker := &diffTracker{}
	opts := append([]conversation.Option{
		conversation.WithCueSink(s.sinkFor(visitor)),
		conversation.WithLogger(s.logger.With("visitor_id", visitor)),
		conversation.WithClock(s.now),
		conversation.WithEventHandler(s.eventsFor(visitor, func(domain.Event) {
			if diff := tracker.next(eng.State()); diff != nil {
				s.streams.Publish(visitor, FrameDiff, diff)
			}
		})),
	}, s.convOpts...)
	eng = conversation.New(s.sched, opts...)

	s.mounts.put(visitor, &mount{page: funnel.PageConversation, stage: d.Stage, conv: eng})
	if err := eng.Start(sc); err != nil {
		s.mounts.Remove(visitor)
		writeError(w, statusFor(err), err)
		return
	}

	state := eng.State()
	writeJSON(w, http.StatusOK, MountResponse{Decision: d, Conversation: &state})
}

func (s *Server) mounted(w http.ResponseWriter, r *http.Request, page funnel.Page) (*mount, bool) {
	visitor := IdentityFrom(r.Context()).VisitorID
	m, ok := s.mounts.get(visitor)
	if !ok || m.page != page {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w for %s", domain.ErrNotMounted, page))
		return nil, false
	}
	return m, true
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mounted(w, r, funnel.PageConversation)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.conv.State())
}

// completeStage writes the stage flag after an engine reports completion
// and tells the visitor's streams where to go next.
func (s *Server) completeStage(w http.ResponseWriter, r *http.Request, stage funnel.Stage) (*funnel.Decision, bool) {
	st, ok := s.load(w, r)
	if !ok {
		return nil, false
	}
	d, err := s.ctl.Complete(r.Context(), st, stage)
	if err != nil {
		s.logger.Error("Failed to complete stage", "stage", stage, "err", err)
		writeError(w, statusFor(err), err)
		return nil, false
	}
	s.streams.Publish(st.VisitorID, FrameRedirect, d)
	return &d, true
}

func (s *Server) continueConversation(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mounted(w, r, funnel.PageConversation)
	if !ok {
		return
	}
	outcome := m.conv.Continue()
	resp := ContinueResponse{Outcome: outcome.String()}
	if outcome == player.OutcomeCompleted {
		d, ok := s.completeStage(w, r, m.stage)
		if !ok {
			return
		}
		resp.Redirect = d
	}
	state := m.conv.State()
	resp.Conversation = &state
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) mountCustomization(w http.ResponseWriter, r *http.Request) {
	st, d, ok := s.enter(w, r, funnel.PageCustomization)
	if !ok {
		return
	}
	if !d.Render() {
		writeJSON(w, http.StatusOK, MountResponse{Decision: d})
		return
	}

	cats, err := s.scripts.Catalog()
	if err != nil {
		s.logger.Error("Failed to load catalog", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	visitor := st.VisitorID
	var eng *wizard.Engine
	opts := append([]wizard.Option{
		wizard.WithCueSink(s.sinkFor(visitor)),
		wizard.WithLogger(s.logger.With("visitor_id", visitor)),
		wizard.WithClock(s.now),
		wizard.WithEventHandler(s.eventsFor(visitor, func(domain.Event) {
			s.streams.Publish(visitor, FrameState, eng.State())
		})),
		wizard.WithPromptRecorder(func(stage int, prompt string) {
			// Detached: the recorder can fire from a timer after the request returned.
			if err := s.ctl.RecordPrompt(context.Background(), st, stage, prompt); err != nil {
				s.logger.Warn("Failed to record prompt", "visitor_id", visitor, "stage", stage, "err", err)
			}
		}),
	}, s.wizOpts...)
	eng, err = wizard.New(s.sched, cats, opts...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.mounts.put(visitor, &mount{page: funnel.PageCustomization, stage: d.Stage, wiz: eng})
	state := eng.State()
	writeJSON(w, http.StatusOK, MountResponse{Decision: d, Customization: &state})
}

func (s *Server) getCustomization(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mounted(w, r, funnel.PageCustomization)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.wiz.State())
}

func (s *Server) selectChoice(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, ok := s.mounted(w, r, funnel.PageCustomization)
	if !ok {
		return
	}

	value := req.Value
	var err error
	switch {
	case req.Value != "":
		err = m.wiz.Select(req.Value)
	case req.Prompt != "":
		value, err = m.wiz.SelectPrompt(req.Prompt)
	default:
		err = errors.New("value or prompt is required")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, SelectResponse{Value: value, Customization: m.wiz.State()})
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mounted(w, r, funnel.PageCustomization)
	if !ok {
		return
	}
	moved := m.wiz.Back()
	writeJSON(w, http.StatusOK, BackResponse{Moved: moved, Customization: m.wiz.State()})
}

func (s *Server) continueCustomization(w http.ResponseWriter, r *http.Request) {
	m, ok := s.mounted(w, r, funnel.PageCustomization)
	if !ok {
		return
	}
	outcome := m.wiz.Continue()
	resp := ContinueResponse{Outcome: outcome.String()}
	if outcome == player.OutcomeCompleted {
		d, ok := s.completeStage(w, r, m.stage)
		if !ok {
			return
		}
		resp.Redirect = d
	}
	state := m.wiz.State()
	resp.Customization = &state
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) unmount(w http.ResponseWriter, r *http.Request) {
	s.mounts.Remove(IdentityFrom(r.Context()).VisitorID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	st, d, ok := s.enter(w, r, funnel.PageOffer)
	if !ok {
		return
	}
	resp := OfferResponse{Decision: d}
	if d.Render() {
		resp.Name = st.Name()
		resp.CheckoutURL = s.ctl.Checkout()
	}
	writeJSON(w, http.StatusOK, resp)
}
