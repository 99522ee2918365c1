package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/application/service"
	"browser-pilot/internal/domain/entity"
)

const (
	defaultScrollAmount = 500
	defaultTextSelector = "body"
	defaultMaxLinks     = 30
	defaultDenyReason   = "request denied"
)

var (
	ErrSearchBoxNotFound = errors.New("could not find search box")
	ErrMissingParam      = errors.New("missing parameter")
	ErrNoMemory          = errors.New("memory is not configured")
)

// searchSelectors are tried in order; the first present element wins.
var searchSelectors = []string{
	`input[name="q"]`,
	`textarea[name="q"]`,
	`input[name="search_query"]`,
	`input[type="search"]`,
	`input[aria-label*="Search"]`,
	`input[placeholder*="Search"]`,
	`#search`,
}

type handlerSet struct {
	memory   output.MemoryPort
	links    output.LinkExtractor
	maxLinks int
}

func newHandlers(memory output.MemoryPort, links output.LinkExtractor, maxLinks int) *service.HandlerRegistry {
	h := &handlerSet{memory: memory, links: links, maxLinks: maxLinks}
	return service.NewHandlerRegistry(
		service.NewHandlerFunc(entity.ActionNavigate, h.navigate),
		service.NewHandlerFunc(entity.ActionClick, h.click),
		service.NewHandlerFunc(entity.ActionType, h.typeText),
		service.NewHandlerFunc(entity.ActionScroll, h.scroll),
		service.NewHandlerFunc(entity.ActionScreenshot, h.screenshot),
		service.NewHandlerFunc(entity.ActionGetText, h.getText),
		service.NewHandlerFunc(entity.ActionGetLinks, h.getLinks),
		service.NewHandlerFunc(entity.ActionSearch, h.search),
		service.NewHandlerFunc(entity.ActionRemember, h.remember),
		service.NewHandlerFunc(entity.ActionRecall, h.recall),
		service.NewHandlerFunc(entity.ActionReflect, h.reflect),
		service.NewHandlerFunc(entity.ActionDeny, h.deny),
	)
}

func required(action entity.Action, key string) (string, error) {
	v, ok := action.Params.Get(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w %q", action.Kind, ErrMissingParam, key)
	}
	return v, nil
}

func (h *handlerSet) navigate(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	url, err := required(a, "url")
	if err != nil {
		return nil, err
	}
	if err := s.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}

	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page title: %w", err)
	}
	return map[string]any{"url": url, "title": info.Title}, nil
}

func (h *handlerSet) click(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	selector, err := required(a, "selector")
	if err != nil {
		return nil, err
	}
	if err := s.Click(ctx, selector); err != nil {
		return nil, fmt.Errorf("click %s: %w", selector, err)
	}
	return nil, nil
}

func (h *handlerSet) typeText(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	selector, err := required(a, "selector")
	if err != nil {
		return nil, err
	}
	text := a.Param("text")
	if err := s.Fill(ctx, selector, text); err != nil {
		return nil, fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil, nil
}

func (h *handlerSet) scroll(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	direction := strings.ToLower(a.Params.Value("direction", "down"))

	amount := defaultScrollAmount
	if raw, ok := a.Params.Get("amount"); ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("scroll: invalid amount %q", raw)
		}
		amount = n
	}

	dy := amount
	switch direction {
	case "down":
	case "up":
		dy = -amount
	default:
		return nil, fmt.Errorf("scroll: invalid direction %q", direction)
	}

	if err := s.ScrollBy(ctx, dy); err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	return map[string]any{"direction": direction, "amount": amount}, nil
}

func (h *handlerSet) screenshot(ctx context.Context, s output.BrowserSession, _ entity.Action) (map[string]any, error) {
	shot, err := s.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return map[string]any{
		"screenshot_bytes": len(shot.Data),
		"format":           shot.Format,
		"width":            shot.Width,
		"height":           shot.Height,
	}, nil
}

func (h *handlerSet) getText(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	selector := a.Params.Value("selector", defaultTextSelector)
	text, err := s.Text(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("get text of %s: %w", selector, err)
	}
	return map[string]any{"text": text}, nil
}

func (h *handlerSet) getLinks(ctx context.Context, s output.BrowserSession, _ entity.Action) (map[string]any, error) {
	if h.links == nil {
		return nil, fmt.Errorf("%w: get_links", ErrUnsupportedAction)
	}
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	links, err := h.links.ExtractLinks(html, info.URL, h.maxLinks)
	if err != nil {
		return nil, fmt.Errorf("extract links: %w", err)
	}
	return map[string]any{"links": links, "count": len(links)}, nil
}

// search fills the first search box found and submits it.
func (h *handlerSet) search(ctx context.Context, s output.BrowserSession, a entity.Action) (map[string]any, error) {
	query, err := required(a, "query")
	if err != nil {
		return nil, err
	}

	for _, selector := range searchSelectors {
		found, err := s.HasElement(ctx, selector)
		if err != nil {
			if errors.Is(err, output.ErrSessionClosed) {
				return nil, err
			}
			continue
		}
		if !found {
			continue
		}

		if err := s.Fill(ctx, selector, query); err != nil {
			return nil, fmt.Errorf("fill search box %s: %w", selector, err)
		}
		if err := s.PressEnter(ctx, selector); err != nil {
			return nil, fmt.Errorf("submit search: %w", err)
		}
		return map[string]any{"query": query, "selector": selector}, nil
	}

	return nil, ErrSearchBoxNotFound
}

func (h *handlerSet) remember(_ context.Context, _ output.BrowserSession, a entity.Action) (map[string]any, error) {
	if h.memory == nil {
		return nil, ErrNoMemory
	}
	key, err := required(a, "key")
	if err != nil {
		return nil, err
	}
	h.memory.Remember(key, a.Param("value"))
	return map[string]any{"key": key}, nil
}

func (h *handlerSet) recall(_ context.Context, _ output.BrowserSession, a entity.Action) (map[string]any, error) {
	if h.memory == nil {
		return nil, ErrNoMemory
	}
	key, err := required(a, "key")
	if err != nil {
		return nil, err
	}
	value, ok := h.memory.Recall(key)
	if !ok {
		return nil, fmt.Errorf("nothing remembered for %q", key)
	}
	return map[string]any{"key": key, "value": value}, nil
}

func (h *handlerSet) reflect(_ context.Context, _ output.BrowserSession, a entity.Action) (map[string]any, error) {
	return map[string]any{"thought": a.Params.Value("thought", a.Reasoning)}, nil
}

func (h *handlerSet) deny(_ context.Context, _ output.BrowserSession, a entity.Action) (map[string]any, error) {
	return nil, errors.New(a.Params.Value("reason", defaultDenyReason))
}
