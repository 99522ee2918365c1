package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

type fakeSession struct {
	mu sync.Mutex

	id       int
	url      string
	title    string
	present  map[string]bool
	texts    map[string]string
	html     string
	tree     *entity.AXNode
	probeErr error
	// failOn makes the named primitive return the error.
	failOn map[string]error

	calls  []string
	closed bool
	gone   chan struct{}
}

func newFakeSession(id int) *fakeSession {
	return &fakeSession{
		id:      id,
		present: map[string]bool{},
		texts:   map[string]string{},
		failOn:  map[string]error{},
		gone:    make(chan struct{}),
	}
}

func (s *fakeSession) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	for prefix, err := range s.failOn {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			return err
		}
	}
	return nil
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) disconnect() {
	close(s.gone)
}

func (s *fakeSession) Probe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "probe")
	return s.probeErr
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	if err := s.record("navigate " + url); err != nil {
		return err
	}
	s.mu.Lock()
	s.url = url
	s.title = "Title of " + url
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Info(ctx context.Context) (entity.PageContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.PageContext{URL: s.url, Title: s.title}, nil
}

func (s *fakeSession) AccessibilityTree(ctx context.Context) (*entity.AXNode, error) {
	if err := s.record("axtree"); err != nil {
		return nil, err
	}
	return s.tree, nil
}

func (s *fakeSession) Click(ctx context.Context, selector string) error {
	return s.record("click " + selector)
}

func (s *fakeSession) Fill(ctx context.Context, selector, text string) error {
	return s.record(fmt.Sprintf("fill %s %s", selector, text))
}

func (s *fakeSession) PressEnter(ctx context.Context, selector string) error {
	return s.record("enter " + selector)
}

func (s *fakeSession) HasElement(ctx context.Context, selector string) (bool, error) {
	if err := s.record("has " + selector); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present[selector], nil
}

func (s *fakeSession) ScrollBy(ctx context.Context, dy int) error {
	return s.record(fmt.Sprintf("scroll %d", dy))
}

func (s *fakeSession) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := s.record("screenshot"); err != nil {
		return nil, err
	}
	return &entity.Screenshot{Data: make([]byte, 1234), Format: "png", Width: 800, Height: 600}, nil
}

func (s *fakeSession) Text(ctx context.Context, selector string) (string, error) {
	if err := s.record("text " + selector); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.texts[selector]
	if !ok {
		return "", errors.New("element not found")
	}
	return t, nil
}

func (s *fakeSession) HTML(ctx context.Context) (string, error) {
	if err := s.record("html"); err != nil {
		return "", err
	}
	return s.html, nil
}

func (s *fakeSession) Disconnected() <-chan struct{} {
	return s.gone
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeLauncher struct {
	mu       sync.Mutex
	sessions []*fakeSession
	errs     []error
	setup    func(*fakeSession)

	// entered is closed when Launch begins; Launch then waits for gate.
	entered chan struct{}
	gate    chan struct{}
}

func (l *fakeLauncher) Launch(ctx context.Context) (output.BrowserSession, error) {
	if l.gate != nil {
		close(l.entered)
		<-l.gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	s := newFakeSession(len(l.sessions) + 1)
	if l.setup != nil {
		l.setup(s)
	}
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *fakeLauncher) launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

func (l *fakeLauncher) last() *fakeSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) == 0 {
		return nil
	}
	return l.sessions[len(l.sessions)-1]
}

type mapMemory struct {
	mu sync.Mutex
	m  map[string]string
}

func (m *mapMemory) Remember(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.m == nil {
		m.m = map[string]string{}
	}
	m.m[key] = value
}

func (m *mapMemory) Recall(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok
}

func (m *mapMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

type stubLinks struct {
	gotBase  string
	gotLimit int
}

func (s *stubLinks) ExtractLinks(html, base string, limit int) ([]entity.Link, error) {
	s.gotBase, s.gotLimit = base, limit
	return []entity.Link{{Text: "Docs", Href: base + "/docs"}}, nil
}
