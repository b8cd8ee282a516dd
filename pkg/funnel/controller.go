package funnel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
)

// ContactDigits is the required digit count of a contact number (area code + number).
const ContactDigits = 11

// DefaultSubmitTimeout bounds a background lead submission.
const DefaultSubmitTimeout = 15 * time.Second

// Controller performs the funnel's side effects around Guard.
type Controller struct {
	local    *session.Manager
	sessions ports.FlagStore
	collect  ports.LeadCollector
	checkout string

	submitTimeout time.Duration
	now           func() time.Time
	metrics       *observability.Metrics
	logger        *slog.Logger

	inflight sync.WaitGroup
}

// Option configures the Controller.
type Option func(*Controller)

// WithCollector sets where captured leads are posted.
func WithCollector(c ports.LeadCollector) Option {
	return func(ctl *Controller) {
		ctl.collect = c
	}
}

// WithCheckoutURL sets the external checkout link returned by the offer page.
func WithCheckoutURL(url string) Option {
	return func(ctl *Controller) {
		ctl.checkout = url
	}
}

// WithSubmitTimeout overrides DefaultSubmitTimeout.
func WithSubmitTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.submitTimeout = d
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(ctl *Controller) {
		ctl.metrics = m
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(ctl *Controller) {
		ctl.logger = logger
	}
}

// WithClock overrides the lead timestamp source.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) {
		ctl.now = now
	}
}

// NewController creates a Controller over the local (long-lived) and session
// (browser-session) flag scopes.
func NewController(local *session.Manager, sessions ports.FlagStore, opts ...Option) *Controller {
	ctl := &Controller{
		local:         local,
		sessions:      sessions,
		submitTimeout: DefaultSubmitTimeout,
		now:           time.Now,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Load reads both flag scopes.
func (c *Controller) Load(ctx context.Context, visitorID, sessionID string) (State, error) {
	local, err := c.local.Load(ctx, visitorID)
	if err != nil {
		return State{}, fmt.Errorf("failed to load visitor flags: %w", err)
	}
	sess, err := c.sessions.Load(ctx, sessionID)
	if err != nil {
		return State{}, fmt.Errorf("failed to load session flags: %w", err)
	}
	return State{VisitorID: visitorID, SessionID: sessionID, Local: local, Session: sess}, nil
}

// Enter loads the visitor and guards page.
func (c *Controller) Enter(ctx context.Context, visitorID, sessionID string, page Page) (State, Decision, error) {
	st, err := c.Load(ctx, visitorID, sessionID)
	if err != nil {
		return State{}, Decision{}, err
	}
	d := Guard(st, page)
	if !d.Render() {
		c.metrics.ObserveRedirect(string(page), string(d.Redirect))
		c.logger.Debug("Guard redirect", "visitor_id", visitorID, "from", page, "to", d.Redirect)
	}
	return st, d, nil
}

// StartFunnel marks the session as arrived through the entry page.
func (c *Controller) StartFunnel(ctx context.Context, st State) (Decision, error) {
	if err := c.sessions.Set(ctx, st.SessionID, domain.FlagArrivedFromEntry, domain.FlagTrue); err != nil {
		return Decision{}, fmt.Errorf("failed to mark entry: %w", err)
	}
	return redirect(PageEntry, PageContact), nil
}

// ValidateContact trims the contact and checks the form rules.
func ValidateContact(contact domain.Contact) (domain.Contact, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Whatsapp = strings.TrimSpace(contact.Whatsapp)
	if contact.Name == "" {
		return contact, fmt.Errorf("%w: name is required", domain.ErrInvalidContact)
	}
	if n := countDigits(contact.Whatsapp); n != ContactDigits {
		return contact, fmt.Errorf("%w: whatsapp needs %d digits, got %d", domain.ErrInvalidContact, ContactDigits, n)
	}
	return contact, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// CaptureContact stores the participant's contact and posts it to the collector in
// the background. The collector's outcome never affects the returned decision.
//
// The contact page's guard applies: a visitor who did not arrive through the
// entry page, or whose contact is already stored, gets the guard's redirect
// and nothing is written. captured reports whether the contact was stored.
func (c *Controller) CaptureContact(ctx context.Context, st State, contact domain.Contact, source string) (d Decision, captured bool, err error) {
	if g := Guard(st, PageContact); !g.Render() {
		c.metrics.ObserveRedirect(string(PageContact), string(g.Redirect))
		return g, false, nil
	}
	contact, err = ValidateContact(contact)
	if err != nil {
		return Decision{}, false, err
	}

	err = c.local.WithLock(ctx, st.VisitorID, func(ctx context.Context) error {
		store := c.local.Store()
		flags, err := store.Load(ctx, st.VisitorID)
		if err != nil {
			return fmt.Errorf("failed to check contact: %w", err)
		}
		if (State{Local: flags}).HasContact() {
			return nil
		}
		// The name marks the contact as captured, so it goes last.
		if err := store.Set(ctx, st.VisitorID, domain.FlagParticipantContact, contact.Whatsapp); err != nil {
			return fmt.Errorf("failed to store contact: %w", err)
		}
		if err := store.Set(ctx, st.VisitorID, domain.FlagParticipantName, contact.Name); err != nil {
			return fmt.Errorf("failed to store name: %w", err)
		}
		captured = true
		return nil
	})
	if err != nil {
		return Decision{}, false, err
	}
	if !captured {
		return redirect(PageContact, PageConversation), false, nil
	}
	c.metrics.ObserveCompletion(string(StageContact))

	c.submit(domain.Lead{
		Name:      contact.Name,
		Whatsapp:  contact.Whatsapp,
		Timestamp: c.now().UTC(),
		Source:    source,
	})

	return redirect(PageContact, PageConversation), true, nil
}

func (c *Controller) submit(lead domain.Lead) {
	if c.collect == nil {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		// Detached from the request: the visitor has already moved on.
		ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
		defer cancel()

		if err := c.collect.Submit(ctx, lead); err != nil {
			c.metrics.ObserveLead(lead.Source, false)
			c.logger.Warn("Lead submission failed", "source", lead.Source, "err", err)
			return
		}
		c.metrics.ObserveLead(lead.Source, true)
	}()
}

// Complete writes the completion flag of stage and redirects to the next page.
// Completing an already completed stage rewrites nothing and redirects the same way.
func (c *Controller) Complete(ctx context.Context, st State, stage Stage) (Decision, error) {
	flag := stage.Flag()
	if flag == "" {
		return Decision{}, fmt.Errorf("stage %q is not completed by a flag", stage)
	}

	written, err := c.local.SetOnce(ctx, st.VisitorID, flag, domain.FlagTrue)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to complete %s: %w", stage, err)
	}
	if written {
		c.metrics.ObserveCompletion(string(stage))
		c.logger.Info("Stage completed", "visitor_id", st.VisitorID, "stage", stage)
	}
	return redirect(stage.Page(), stage.Next().Page()), nil
}

// RecordPrompt stores the last wizard prompt of a stage.
func (c *Controller) RecordPrompt(ctx context.Context, st State, stage int, prompt string) error {
	key := domain.FlagPromptPrefix + strconv.Itoa(stage)
	if err := c.local.Set(ctx, st.VisitorID, key, prompt); err != nil {
		return fmt.Errorf("failed to record prompt: %w", err)
	}
	return nil
}

// Checkout returns the external checkout URL.
func (c *Controller) Checkout() string {
	return c.checkout
}

// Wait blocks until background lead submissions finish.
func (c *Controller) Wait() {
	c.inflight.Wait()
}
