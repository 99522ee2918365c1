package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"browser-pilot/internal/application/port/output"
)

var _ output.SessionLauncher = (*Launcher)(nil)

const (
	defaultTimeout        = 10 * time.Second
	defaultNavTimeout     = 30 * time.Second
	defaultProbeTimeout   = 5 * time.Second
	defaultMaxShotWidth   = 1024
	defaultShotQuality    = 75
	defaultIdleAfterClick = 2 * time.Second
)

type BrowserConfig struct {
	Headless   bool
	NoSandbox  bool
	Bin        string
	SlowMotion time.Duration
	// Timeout bounds element lookups and single primitives.
	Timeout           time.Duration
	NavigationTimeout time.Duration
	ProbeTimeout      time.Duration
	MaxShotWidth      int
	ShotQuality       int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          false,
		NoSandbox:         false,
		Timeout:           defaultTimeout,
		NavigationTimeout: defaultNavTimeout,
		ProbeTimeout:      defaultProbeTimeout,
		MaxShotWidth:      defaultMaxShotWidth,
		ShotQuality:       defaultShotQuality,
	}
}

func (c BrowserConfig) withDefaults() BrowserConfig {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.MaxShotWidth <= 0 {
		c.MaxShotWidth = d.MaxShotWidth
	}
	if c.ShotQuality <= 0 || c.ShotQuality > 100 {
		c.ShotQuality = d.ShotQuality
	}
	return c
}

// Launcher starts one Chrome process with one blank page per Launch call.
type Launcher struct {
	cfg    BrowserConfig
	logger output.LoggerPort
}

func NewLauncher(cfg BrowserConfig, logger output.LoggerPort) *Launcher {
	return &Launcher{cfg: cfg.withDefaults(), logger: logger}
}

// Launch ignores ctx cancellation once the process is up: the session
// outlives the request that started it.
func (l *Launcher) Launch(ctx context.Context) (output.BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lch := launcher.New().
		Headless(l.cfg.Headless).
		NoSandbox(l.cfg.NoSandbox).
		Delete("use-mock-keychain")
	if l.cfg.Bin != "" {
		lch = lch.Bin(l.cfg.Bin)
	}

	controlURL, err := lch.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, cancel := context.WithCancel(context.Background())
	browser := rod.New().ControlURL(controlURL).Context(browserCtx)
	if l.cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(l.cfg.SlowMotion)
	}

	if err := browser.Connect(); err != nil {
		cancel()
		lch.Kill()
		lch.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		cancel()
		lch.Kill()
		lch.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	s := newSession(l.cfg, lch, browser, page, cancel)
	s.watch()

	l.logger.Debug("browser launched", "pid", lch.PID(), "headless", l.cfg.Headless)
	return s, nil
}
