// Package controller owns the single browser session and turns actions into
// browser primitives. Every outcome is reported through entity.ActionResult;
// the session restarts itself when it is found dead.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/application/service"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/usecase/perception"
)

var (
	ErrUnsupportedAction   = errors.New("unsupported action")
	ErrNoSession           = errors.New("browser not running")
	ErrStoppedDuringLaunch = errors.New("browser stopped while starting")
)

type Config struct {
	// StepDelay is the pause before every batch step but the first.
	StepDelay   time.Duration
	MaxDepth    int
	MaxElements int
	MaxLinks    int
}

func DefaultConfig() Config {
	return Config{
		StepDelay:   2 * time.Second,
		MaxDepth:    perception.DefaultMaxDepth,
		MaxElements: perception.DefaultMaxElements,
		MaxLinks:    defaultMaxLinks,
	}
}

type Controller struct {
	launcher  output.SessionLauncher
	handlers  *service.HandlerRegistry
	extractor *perception.Extractor
	logger    output.LoggerPort
	metrics   *Metrics
	cfg       Config

	sleep func(ctx context.Context, d time.Duration) error

	// seq serializes dispatch sequences; mu guards the fields below it.
	seq     sync.Mutex
	mu      sync.Mutex
	state   State
	session output.BrowserSession
	unwatch chan struct{}
	watchWG sync.WaitGroup
	crashed bool
}

type Option func(*Controller)

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSleep replaces the batch pause.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

func New(
	launcher output.SessionLauncher,
	memory output.MemoryPort,
	links output.LinkExtractor,
	logger output.LoggerPort,
	cfg Config,
	opts ...Option,
) *Controller {
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = defaultMaxLinks
	}
	c := &Controller{
		launcher:  launcher,
		extractor: perception.NewExtractor(cfg.MaxDepth),
		logger:    logger,
		cfg:       cfg,
		sleep:     sleepCtx,
		state:     StateStopped,
	}
	c.handlers = newHandlers(memory, links, cfg.MaxLinks)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Running() bool {
	return c.State() == StateRunning
}

// Kinds lists the action kinds the dispatch table knows.
func (c *Controller) Kinds() []entity.ActionKind {
	return c.handlers.Kinds()
}

// Submit runs one action, starting or restarting the session when needed.
func (c *Controller) Submit(ctx context.Context, action entity.Action) entity.ActionResult {
	c.seq.Lock()
	defer c.seq.Unlock()
	return c.submit(ctx, action)
}

// SubmitBatch runs actions strictly in order, pausing before every step but
// the first. A failed step does not stop the batch. If ctx ends during a
// pause the remaining steps are reported as failed without running.
func (c *Controller) SubmitBatch(ctx context.Context, actions []entity.Action) []entity.StepResult {
	c.seq.Lock()
	defer c.seq.Unlock()

	results := make([]entity.StepResult, 0, len(actions))
	for i, action := range actions {
		if i > 0 {
			if err := c.sleep(ctx, c.cfg.StepDelay); err != nil {
				results = append(results, entity.StepResult{Action: action, Result: entity.Failed(err)})
				continue
			}
		}
		start := time.Now()
		result := c.submit(ctx, action)
		results = append(results, entity.StepResult{Action: action, Result: result, Elapsed: time.Since(start)})
	}
	return results
}

func (c *Controller) submit(ctx context.Context, action entity.Action) entity.ActionResult {
	start := time.Now()
	result := c.dispatch(ctx, action)
	c.metrics.observeAction(action.Kind.String(), result.Success, time.Since(start))

	if result.Success {
		c.logger.Debug("action completed", "action", action.Kind, "duration_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.Warn("action failed", "action", action.Kind, "error", result.Error)
	}
	return result
}

func (c *Controller) dispatch(ctx context.Context, action entity.Action) entity.ActionResult {
	handler, ok := c.handlers.Get(action.Kind)
	if !ok {
		return entity.Failed(fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Kind))
	}

	if !action.Kind.RequiresBrowser() {
		data, err := handler.Handle(ctx, nil, action)
		if err != nil {
			return entity.Failed(err)
		}
		return entity.Succeeded(data)
	}

	session, err := c.ensureSession(ctx)
	if err != nil {
		return entity.Failed(fmt.Errorf("start browser: %w", err))
	}

	data, err := handler.Handle(ctx, session, action)
	if err != nil {
		if errors.Is(err, output.ErrSessionClosed) {
			c.logger.Warn("browser closed during action", "action", action.Kind)
			c.markCrashed(session)
		}
		return entity.Failed(err)
	}
	return entity.Succeeded(data)
}

// ensureSession returns a live session. A running session is probed first; a
// failed probe tears it down and a fresh one is launched.
func (c *Controller) ensureSession(ctx context.Context) (output.BrowserSession, error) {
	c.mu.Lock()
	state, session := c.state, c.session
	c.mu.Unlock()

	if state == StateRunning && session != nil {
		err := session.Probe(ctx)
		if err == nil {
			return session, nil
		}
		c.logger.Warn("liveness probe failed, restarting browser", "error", err)
		c.markCrashed(session)
	}

	return c.start(ctx)
}

func (c *Controller) start(ctx context.Context) (output.BrowserSession, error) {
	c.mu.Lock()
	restart := c.crashed
	c.transition(StateStarting)
	c.mu.Unlock()

	c.logger.Info("starting browser", "restart", restart)
	session, err := c.launcher.Launch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStarting {
		// Stop ran while the launcher was busy.
		if session != nil {
			if cerr := session.Close(); cerr != nil {
				c.logger.Debug("close browser session", "error", cerr)
			}
		}
		c.logger.Info("discarding browser launched after stop")
		return nil, ErrStoppedDuringLaunch
	}

	if err != nil {
		c.transition(StateStopped)
		c.metrics.incLaunchFailure()
		c.logger.Error("browser launch failed", "error", err)
		return nil, err
	}

	c.session = session
	c.crashed = false
	c.transition(StateRunning)
	c.watch(session)
	if restart {
		c.metrics.incRestart()
	}
	c.logger.Info("browser ready")
	return session, nil
}

// watch moves the controller to Crashed when the session reports
// disconnection. Caller holds mu.
func (c *Controller) watch(session output.BrowserSession) {
	unwatch := make(chan struct{})
	c.unwatch = unwatch
	c.watchWG.Add(1)
	go func() {
		defer c.watchWG.Done()
		select {
		case <-session.Disconnected():
			c.logger.Warn("browser disconnected")
			c.markCrashed(session)
		case <-unwatch:
		}
	}()
}

// markCrashed tears session down if it is still the current one.
func (c *Controller) markCrashed(session output.BrowserSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session || c.state != StateRunning {
		return
	}
	c.transition(StateCrashed)
	c.crashed = true
	c.teardown()
}

// teardown releases the current session. Caller holds mu.
func (c *Controller) teardown() {
	if c.unwatch != nil {
		close(c.unwatch)
		c.unwatch = nil
	}
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.logger.Debug("close browser session", "error", err)
		}
		c.session = nil
	}
}

// transition moves to next. Caller holds mu.
func (c *Controller) transition(next State) {
	if c.state == next {
		return
	}
	if !canTransition(c.state, next) {
		c.logger.Warn("unexpected state transition", "from", c.state.String(), "to", next.String())
	}
	c.state = next
}

// Context reports the url and title of the live page. It returns the zero
// value when there is no session or the probe fails.
func (c *Controller) Context(ctx context.Context) entity.PageContext {
	session := c.live(ctx)
	if session == nil {
		return entity.PageContext{}
	}
	info, err := session.Info(ctx)
	if err != nil {
		c.logger.Debug("page info failed", "error", err)
		return entity.PageContext{}
	}
	return info
}

// Perception extracts and renders the current page. It never starts a
// session.
func (c *Controller) Perception(ctx context.Context) entity.PerceptionResult {
	session := c.live(ctx)
	if session == nil {
		return entity.PerceptionResult{Error: ErrNoSession.Error()}
	}

	p, err := c.extractor.Extract(ctx, session)
	if err != nil {
		if errors.Is(err, output.ErrSessionClosed) {
			c.markCrashed(session)
		}
		return entity.PerceptionResult{Error: err.Error()}
	}

	return entity.PerceptionResult{
		Success: true,
		Text:    perception.Render(p, c.cfg.MaxElements),
		Tree:    p,
	}
}

// live returns the running session after a successful probe, or nil.
func (c *Controller) live(ctx context.Context) output.BrowserSession {
	c.mu.Lock()
	state, session := c.state, c.session
	c.mu.Unlock()

	if state != StateRunning || session == nil {
		return nil
	}
	if err := session.Probe(ctx); err != nil {
		c.logger.Debug("liveness probe failed", "error", err)
		c.markCrashed(session)
		return nil
	}
	return session
}

// Stop releases the browser. Calling it again is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	wasRunning := c.session != nil
	c.teardown()
	c.crashed = false
	c.transition(StateStopped)
	c.mu.Unlock()

	c.watchWG.Wait()
	if wasRunning {
		c.logger.Info("browser stopped")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
