package output

import (
	"context"
	"errors"

	"browser-pilot/internal/domain/entity"
)

// ErrSessionClosed is wrapped by sessions when the page, target or process
// is gone. The controller treats it as a crash.
var ErrSessionClosed = errors.New("browser session closed")

// PageSource is the narrow view the perception extractor needs.
type PageSource interface {
	Info(ctx context.Context) (entity.PageContext, error)
	AccessibilityTree(ctx context.Context) (*entity.AXNode, error)
}

// BrowserSession is one browser process with one page. It is owned by the
// controller and never handed out.
type BrowserSession interface {
	PageSource

	// Probe runs a trivial evaluation to check the page still answers.
	Probe(ctx context.Context) error

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	// PressEnter submits the element matched by selector.
	PressEnter(ctx context.Context, selector string) error
	HasElement(ctx context.Context, selector string) (bool, error)
	ScrollBy(ctx context.Context, dy int) error

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)

	// Disconnected is closed once the process exits or the page target goes away.
	Disconnected() <-chan struct{}
	Close() error
}

type SessionLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// LinkExtractor pulls anchors out of a page's HTML, resolving hrefs against
// base. At most limit links are returned.
type LinkExtractor interface {
	ExtractLinks(html, base string, limit int) ([]entity.Link, error)
}
