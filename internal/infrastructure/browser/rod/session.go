package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

var _ output.BrowserSession = (*Session)(nil)

// Session is one Chrome process driving one page.
type Session struct {
	cfg      BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc

	gone      chan struct{}
	goneOnce  sync.Once
	closeOnce sync.Once
}

func newSession(cfg BrowserConfig, l *launcher.Launcher, b *rod.Browser, p *rod.Page, cancel context.CancelFunc) *Session {
	return &Session{
		cfg:      cfg,
		launcher: l,
		browser:  b,
		page:     p,
		cancel:   cancel,
		gone:     make(chan struct{}),
	}
}

// watch closes gone when the process exits or the page target is destroyed.
func (s *Session) watch() {
	go func() {
		s.launcher.Cleanup()
		s.markGone()
	}()

	targetID := s.page.TargetID
	wait := s.browser.EachEvent(func(e *proto.TargetTargetDestroyed) bool {
		if e.TargetID == targetID {
			s.markGone()
			return true
		}
		return false
	})
	go wait()
}

func (s *Session) markGone() {
	s.goneOnce.Do(func() { close(s.gone) })
}

func (s *Session) isGone() bool {
	select {
	case <-s.gone:
		return true
	default:
		return false
	}
}

func (s *Session) Disconnected() <-chan struct{} {
	return s.gone
}

// scoped returns the page bound to ctx with a deadline of d.
func (s *Session) scoped(ctx context.Context, d time.Duration) (*rod.Page, context.CancelFunc, error) {
	if s.isGone() {
		return nil, nil, output.ErrSessionClosed
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return s.page.Context(ctx), cancel, nil
}

func (s *Session) Probe(ctx context.Context) error {
	p, cancel, err := s.scoped(ctx, s.cfg.ProbeTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	if _, err := p.Eval(`() => 1 + 1`); err != nil {
		return s.classify(fmt.Errorf("probe: %w", err))
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p, cancel, err := s.scoped(ctx, s.cfg.NavigationTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return s.classify(fmt.Errorf("navigation failed: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return s.classify(fmt.Errorf("wait load: %w", err))
	}
	_ = p.WaitIdle(2 * time.Second)
	return nil
}

func (s *Session) Info(ctx context.Context) (entity.PageContext, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return entity.PageContext{}, err
	}
	defer cancel()

	info, err := p.Info()
	if err != nil {
		return entity.PageContext{}, s.classify(fmt.Errorf("page info: %w", err))
	}
	return entity.PageContext{URL: info.URL, Title: info.Title}, nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, context.CancelFunc, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	el, err := p.Element(selector)
	if err != nil {
		cancel()
		return nil, nil, s.classify(fmt.Errorf("element not found: %s: %w", selector, err))
	}
	return el, cancel, nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	el, cancel, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return s.classify(fmt.Errorf("click failed: %w", err))
	}
	_ = s.page.Context(ctx).WaitIdle(defaultIdleAfterClick)
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	el, cancel, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return s.classify(fmt.Errorf("input failed: %w", err))
	}
	return nil
}

func (s *Session) PressEnter(ctx context.Context, selector string) error {
	el, cancel, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.Type(input.Enter); err != nil {
		return s.classify(fmt.Errorf("failed to press Enter: %w", err))
	}
	_ = s.page.Context(ctx).WaitIdle(time.Second)
	return nil
}

func (s *Session) HasElement(ctx context.Context, selector string) (bool, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	has, _, err := p.Has(selector)
	if err != nil {
		return false, s.classify(fmt.Errorf("query %s: %w", selector, err))
	}
	return has, nil
}

func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return err
	}
	defer cancel()

	if _, err := p.Eval(`(dy) => window.scrollBy(0, dy)`, dy); err != nil {
		return s.classify(fmt.Errorf("scroll failed: %w", err))
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	imgBytes, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, s.classify(fmt.Errorf("screenshot failed: %w", err))
	}

	img, err := jpeg.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > s.cfg.MaxShotWidth {
		img = imaging.Resize(img, s.cfg.MaxShotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: s.cfg.ShotQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	el, cancel, err := s.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()

	text, err := el.Text()
	if err != nil {
		return "", s.classify(fmt.Errorf("read text: %w", err))
	}
	return text, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return "", err
	}
	defer cancel()

	html, err := p.HTML()
	if err != nil {
		return "", s.classify(fmt.Errorf("read html: %w", err))
	}
	return html, nil
}

func (s *Session) AccessibilityTree(ctx context.Context) (*entity.AXNode, error) {
	p, cancel, err := s.scoped(ctx, s.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	res, err := proto.AccessibilityGetFullAXTree{}.Call(p)
	if err != nil {
		return nil, s.classify(fmt.Errorf("accessibility tree: %w", err))
	}
	return buildTree(res.Nodes), nil
}

// Close kills the process. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.browser.Close()
		s.cancel()
		s.launcher.Kill()
		s.markGone()
	})
	return nil
}

var closedMarkers = []string{
	"use of closed network connection",
	"target closed",
	"no target with given id",
	"session with given id not found",
	"websocket: close",
}

// classify wraps err with output.ErrSessionClosed when it says the page or
// process is gone.
func (s *Session) classify(err error) error {
	if err == nil {
		return nil
	}
	if s.isGone() || isClosedError(err) {
		return fmt.Errorf("%w: %v", output.ErrSessionClosed, err)
	}
	return err
}

func isClosedError(err error) bool {
	if errors.Is(err, output.ErrSessionClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range closedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
