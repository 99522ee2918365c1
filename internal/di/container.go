package di

import (
	"fmt"
	"io"

	"browser-pilot/internal/adapter/httpapi"
	"browser-pilot/internal/application/port/input"
	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/application/service"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/infrastructure/browser/dom"
	"browser-pilot/internal/infrastructure/browser/rod"
	"browser-pilot/internal/infrastructure/config"
	"browser-pilot/internal/infrastructure/llm/openrouter"
	"browser-pilot/internal/infrastructure/logger"
	"browser-pilot/internal/infrastructure/memory"
	"browser-pilot/internal/infrastructure/prompts"
	"browser-pilot/internal/usecase/controller"
	"browser-pilot/internal/usecase/executor"
	"browser-pilot/internal/usecase/intent"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Config       *config.Config
	Logger       output.LoggerPort
	Audit        output.AuditPort
	LLM          output.LLMPort
	Memory       *memory.Store
	Validator    *service.ActionValidator
	Controller   *controller.Controller
	TurnExecutor input.TurnExecutor
	Registry     *prometheus.Registry
}

type Option func(*options)

type options struct {
	launcher output.SessionLauncher
	logger   output.LoggerPort
	audit    output.AuditPort
	llm      output.LLMPort
}

// WithLauncher replaces the rod launcher, mostly for tests.
func WithLauncher(l output.SessionLauncher) Option {
	return func(o *options) { o.launcher = l }
}

func WithLogger(l output.LoggerPort) Option {
	return func(o *options) { o.logger = l }
}

func WithAudit(a output.AuditPort) Option {
	return func(o *options) { o.audit = a }
}

func WithLLM(l output.LLMPort) Option {
	return func(o *options) { o.llm = l }
}

func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		log = logger.NewLoggerAdapter(logger.Config{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
	}

	allowed, err := parseKinds(cfg.Server.AllowedActions)
	if err != nil {
		log.Close()
		return nil, err
	}
	validator := service.NewActionValidator(allowed)

	policy, err := intent.ParsePolicy(cfg.Intent.Policy)
	if err != nil {
		log.Close()
		return nil, err
	}

	store, err := memory.NewStore(cfg.Memory.Size)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}

	audit := o.audit
	if audit == nil {
		if cfg.Audit.File != "" {
			audit = logger.NewAuditLogger(cfg.Audit.File, cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups)
		} else {
			audit = logger.NewAuditWriter(io.Discard)
		}
	}

	launcher := o.launcher
	if launcher == nil {
		launcher = rod.NewLauncher(rod.BrowserConfig{
			Headless:          cfg.Browser.Headless,
			NoSandbox:         cfg.Browser.NoSandbox,
			Bin:               cfg.Browser.Bin,
			SlowMotion:        cfg.Browser.SlowMotion,
			Timeout:           cfg.Browser.Timeout,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			ProbeTimeout:      cfg.Browser.ProbeTimeout,
			MaxShotWidth:      cfg.Browser.MaxShotWidth,
			ShotQuality:       cfg.Browser.ShotQuality,
		}, log.WithField("component", "browser"))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctrl := controller.New(
		launcher,
		store,
		dom.NewLinkExtractor(),
		log.WithField("component", "controller"),
		controller.Config{
			StepDelay:   cfg.Controller.StepDelay,
			MaxDepth:    cfg.Perception.MaxDepth,
			MaxElements: cfg.Perception.MaxElements,
			MaxLinks:    cfg.Controller.MaxLinks,
		},
		controller.WithMetrics(controller.MustNewMetrics(registry)),
	)

	llm := o.llm
	if llm == nil {
		llmCfg := openrouter.DefaultConfig(cfg.LLM.APIKey, cfg.LLM.Model)
		llmCfg.BaseURL = cfg.LLM.BaseURL
		llmCfg.Timeout = cfg.LLM.Timeout
		llmCfg.Logger = log.WithField("component", "llm")
		llm = openrouter.NewOpenRouterAdapter(llmCfg)
	}

	turns := executor.New(
		llm,
		ctrl,
		validator,
		audit,
		log.WithField("component", "executor"),
		promptFunc(validator),
		executor.Config{
			Policy:      policy,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	)

	return &Container{
		Config:       cfg,
		Logger:       log,
		Audit:        audit,
		LLM:          llm,
		Memory:       store,
		Validator:    validator,
		Controller:   ctrl,
		TurnExecutor: turns,
		Registry:     registry,
	}, nil
}

// HTTPServer builds the calling layer over the container's components.
func (c *Container) HTTPServer() *httpapi.Server {
	httpCfg := httpapi.DefaultConfig()
	httpCfg.RateLimit = c.Config.Server.RateLimit
	httpCfg.RateBurst = c.Config.Server.RateBurst
	httpCfg.JSONLogs = c.Config.Log.Format == "json"

	return httpapi.NewServer(
		httpCfg,
		c.TurnExecutor,
		c.Controller,
		c.Validator,
		c.Audit,
		c.Logger.WithField("component", "http"),
		c.Registry,
	)
}

func (c *Container) Close() {
	if c.Controller != nil {
		c.Controller.Stop()
	}
	if c.Audit != nil {
		c.Audit.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// promptFunc offers the model only the kinds the validator lets through.
func promptFunc(validator *service.ActionValidator) executor.PromptFunc {
	var kinds []entity.ActionKind
	for _, kind := range entity.ActionKinds() {
		if validator.Allowed(kind) {
			kinds = append(kinds, kind)
		}
	}

	return func(mode string, browser bool, pageContext string) (string, error) {
		return prompts.GenerateSystemPrompt(prompts.DefaultSystemPrompt, prompts.PromptOptions{
			Mode:           mode,
			BrowserEnabled: browser,
			Kinds:          kinds,
			PageContext:    pageContext,
		})
	}
}

func parseKinds(names []string) ([]entity.ActionKind, error) {
	kinds := make([]entity.ActionKind, 0, len(names))
	for _, name := range names {
		kind := entity.ActionKind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown action %q in server.allowed_actions", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
