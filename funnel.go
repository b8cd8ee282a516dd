package funnel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/adapters/collector"
	httpAdapter "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/domain"
	funnelcore "github.com/aretw0/funnel/pkg/funnel"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/script"
	"github.com/aretw0/funnel/pkg/session"
)

// ContactFlags are the flag keys holding personal data.
// They are encrypted at rest when a key is configured.
var ContactFlags = []string{domain.FlagParticipantName, domain.FlagParticipantContact}

// App is the high-level entry point: it owns the stores, the scripts and the
// funnel controller, and builds HTTP servers and standalone engines from them.
type App struct {
	scripts    *script.Loader
	scriptDir  string
	local      ports.FlagStore
	sessions   ports.FlagStore
	locker     ports.DistributedLocker
	collector  ports.LeadCollector
	checkout   string
	metrics    *observability.Metrics
	logger     *slog.Logger
	middleware []middleware.Middleware

	manager    *session.Manager
	controller *funnelcore.Controller
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithScripts injects an already parsed script loader.
func WithScripts(l *script.Loader) Option {
	return func(a *App) {
		a.scripts = l
	}
}

// WithScriptDir loads scripts and the catalog from a directory instead of the embedded set.
func WithScriptDir(dir string) Option {
	return func(a *App) {
		a.scriptDir = dir
	}
}

// WithLocalStore sets the store of the long-lived visitor scope (default: memory).
func WithLocalStore(s ports.FlagStore) Option {
	return func(a *App) {
		a.local = s
	}
}

// WithSessionStore sets the store of the browser-session scope (default: memory).
func WithSessionStore(s ports.FlagStore) Option {
	return func(a *App) {
		a.sessions = s
	}
}

// WithLocker serializes writes to one visitor across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(a *App) {
		a.locker = l
	}
}

// WithEncryption encrypts ContactFlags in the local store.
// fallback keys are only used to read values written before a rotation.
func WithEncryption(active []byte, fallback ...[]byte) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
			Keys:         ContactFlags,
		}))
	}
}

// WithStoreMiddleware wraps the local store with extra middleware.
func WithStoreMiddleware(mw ...middleware.Middleware) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, mw...)
	}
}

// WithCollector sets where captured leads are sent.
func WithCollector(c ports.LeadCollector) Option {
	return func(a *App) {
		a.collector = c
	}
}

// WithCheckoutURL sets the external checkout link of the offer page.
func WithCheckoutURL(url string) Option {
	return func(a *App) {
		a.checkout = url
	}
}

// WithMetrics instruments the controller and servers.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New builds an App. Without options it runs entirely in memory with the embedded scripts.
func New(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	if a.scripts == nil {
		var err error
		if a.scriptDir != "" {
			a.scripts, err = script.NewDir(a.scriptDir)
		} else {
			a.scripts, err = script.NewEmbedded()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load scripts: %w", err)
		}
	}
	if _, err := a.scripts.Catalog(); err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}

	if a.local == nil {
		a.local = memory.NewStore()
	}
	if a.sessions == nil {
		a.sessions = memory.NewStore()
	}
	if a.collector == nil {
		a.collector = collector.Nop{}
	}

	local := middleware.Chain(a.local, a.middleware...)

	mgrOpts := []session.Option{session.WithLogger(a.logger)}
	if a.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(a.locker))
	}
	a.manager = session.NewManager(local, mgrOpts...)

	a.controller = funnelcore.NewController(a.manager, a.sessions,
		funnelcore.WithCollector(a.collector),
		funnelcore.WithCheckoutURL(a.checkout),
		funnelcore.WithMetrics(a.metrics),
		funnelcore.WithLogger(a.logger),
	)
	return a, nil
}

// Controller returns the funnel controller.
func (a *App) Controller() *funnelcore.Controller {
	return a.controller
}

// Scripts returns the loaded scripts and catalog.
func (a *App) Scripts() *script.Loader {
	return a.scripts
}

// Visitors returns the serialized access to the local scope.
func (a *App) Visitors() *session.Manager {
	return a.manager
}

// Server builds an HTTP server whose engines run on sched.
func (a *App) Server(sched ports.Scheduler, opts ...httpAdapter.Option) *httpAdapter.Server {
	base := []httpAdapter.Option{
		httpAdapter.WithLogger(a.logger),
		httpAdapter.WithMetrics(a.metrics),
		httpAdapter.WithVersion(Version),
	}
	return httpAdapter.NewServer(a.controller, a.scripts, sched, append(base, opts...)...)
}

// Conversation starts the script id on a fresh engine, with the participant's
// name interpolated into the messages.
func (a *App) Conversation(sched ports.Scheduler, id, name string, opts ...conversation.Option) (*conversation.Engine, error) {
	s, err := a.scripts.Script(id)
	if err != nil {
		return nil, err
	}
	return a.PlayScript(sched, s, name, opts...)
}

// PlayScript starts s on a fresh engine, e.g. a script read from a file.
func (a *App) PlayScript(sched ports.Scheduler, s domain.Script, name string, opts ...conversation.Option) (*conversation.Engine, error) {
	s, err := script.Render(s, script.Vars{Name: name})
	if err != nil {
		return nil, err
	}

	base := []conversation.Option{conversation.WithLogger(a.logger)}
	eng := conversation.New(sched, append(base, opts...)...)
	if err := eng.Start(s); err != nil {
		eng.Dispose()
		return nil, err
	}
	return eng, nil
}

// Ping checks every store that can report its health.
func (a *App) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(context.Context) error
	}
	for _, s := range []ports.FlagStore{a.local, a.sessions} {
		if p, ok := s.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close waits for pending lead submissions.
func (a *App) Close() {
	a.controller.Wait()
}
