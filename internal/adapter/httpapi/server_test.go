package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/infrastructure/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAutomation struct {
	mu        sync.Mutex
	running   bool
	submitted []entity.Action
	result    entity.ActionResult
}

func (f *fakeAutomation) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeAutomation) setRunning(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = v
}

func (f *fakeAutomation) Submit(_ context.Context, a entity.Action) entity.ActionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, a)
	f.running = true
	return f.result
}

func (f *fakeAutomation) Context(context.Context) entity.PageContext {
	return entity.PageContext{URL: "https://example.com/", Title: "Example Domain"}
}

func (f *fakeAutomation) Perception(context.Context) entity.PerceptionResult {
	return entity.PerceptionResult{Success: true, Text: "=== PAGE: Example Domain ==="}
}

type fakeTurns struct {
	got entity.Turn
	err error
}

func (f *fakeTurns) Execute(_ context.Context, turn entity.Turn) (*entity.TurnResult, error) {
	f.got = turn
	if f.err != nil {
		return nil, f.err
	}
	return &entity.TurnResult{TurnID: turn.ID, Reply: "Opening it", Mode: turn.Mode, Source: entity.SourceMessage}, nil
}

type memAudit struct {
	records []output.AuditRecord
	reasons []error
}

func (m *memAudit) Record(rec output.AuditRecord) { m.records = append(m.records, rec) }

func (m *memAudit) Blocked(rec output.AuditRecord, reason error) {
	m.records = append(m.records, rec)
	m.reasons = append(m.reasons, reason)
}

func (m *memAudit) Close() error { return nil }

type fixture struct {
	auto  *fakeAutomation
	turns *fakeTurns
	audit *memAudit
	srv   *httptest.Server
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		auto:  &fakeAutomation{result: entity.Succeeded(map[string]any{"url": "https://example.com"})},
		turns: &fakeTurns{},
		audit: &memAudit{},
	}

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pilot_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s := NewServer(cfg, f.turns, f.auto, nil, f.audit, logger.NewNop(), reg)
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	resp, body := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"running": false}, body["browser"])
}

func TestChat(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	resp, body := f.do(t, http.MethodPost, "/chat", `{"message":"open youtube"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Opening it", body["response"])
	assert.Equal(t, "companion", body["mode"])
	assert.Equal(t, "open youtube", f.turns.got.Message)
	assert.NotEmpty(t, f.turns.got.ID)
}

func TestChat_BadRequests(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	cases := map[string]string{
		"empty message": `{"message":"  "}`,
		"unknown mode":  `{"message":"hi","mode":"pirate"}`,
		"bad json":      `{"message":`,
		"unknown field": `{"message":"hi","extra":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := f.do(t, http.MethodPost, "/chat", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["detail"])
		})
	}
}

func TestChat_ExecutorError(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.turns.err = errors.New("llm down")

	resp, out := f.do(t, http.MethodPost, "/chat", `{"message":"hi","mode":"guardian"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "chat failed", out["detail"])
}

func TestAction_Dispatches(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	resp, body := f.do(t, http.MethodPost, "/browser/action",
		`{"action":"navigate","params":{"url":"https://example.com"}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	require.Len(t, f.auto.submitted, 1)
	assert.Equal(t, entity.ActionNavigate, f.auto.submitted[0].Kind)
	assert.Equal(t, "https://example.com", f.auto.submitted[0].Param("url"))

	require.Len(t, f.audit.records, 1)
	assert.Equal(t, "direct", f.audit.records[0].Source)
	assert.Equal(t, "https://example.com/", f.audit.records[0].PageURL)
	assert.True(t, f.audit.records[0].Result.Success)
}

func TestAction_Rejected(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	cases := map[string]string{
		"not allowed": `{"action":"deny","params":{"reason":"x"}}`,
		"unknown":     `{"action":"execute_js","params":{}}`,
		"localhost":   `{"action":"navigate","params":{"url":"http://localhost:8000/health"}}`,
		"file scheme": `{"action":"navigate","params":{"url":"file:///etc/passwd"}}`,
		"private ip":  `{"action":"navigate","params":{"url":"http://192.168.1.1"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := f.do(t, http.MethodPost, "/browser/action", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["detail"])
		})
	}

	assert.Empty(t, f.auto.submitted)
	assert.Len(t, f.audit.reasons, len(cases))
}

func TestContextAndPerception(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, body := f.do(t, http.MethodGet, "/browser/context", "")
	assert.Equal(t, map[string]any{"running": false}, body)
	_, body = f.do(t, http.MethodGet, "/browser/perception", "")
	assert.Equal(t, map[string]any{"running": false}, body)

	f.auto.setRunning(true)

	_, body = f.do(t, http.MethodGet, "/browser/context", "")
	assert.Equal(t, true, body["running"])
	assert.Equal(t, "Example Domain", body["title"])

	_, body = f.do(t, http.MethodGet, "/browser/perception", "")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "=== PAGE: Example Domain ===", body["text"])
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	f := newFixture(t, cfg)

	for i := 0; i < 2; i++ {
		resp, _ := f.do(t, http.MethodGet, "/browser/context", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, out := f.do(t, http.MethodGet, "/browser/context", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate limit exceeded", out["detail"])

	resp, _ = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is not rate limited")
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pilot_test_total 1")
}

func TestAction_ParamsKeepOrderAndScalars(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	resp, body := f.do(t, http.MethodPost, "/browser/action",
		`{"action":"scroll","params":{"direction":"up","amount":300}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode, body["detail"])
	require.Len(t, f.auto.submitted, 1)

	all := f.auto.submitted[0].Params.All()
	require.Len(t, all, 2)
	assert.Equal(t, entity.Param{Key: "direction", Value: "up"}, all[0])
	assert.Equal(t, entity.Param{Key: "amount", Value: "300"}, all[1])
}

func TestAction_ParamsMustBeObject(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	resp, body := f.do(t, http.MethodPost, "/browser/action",
		`{"action":"scroll","params":["up"]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "params must be a JSON object")
	assert.Empty(t, f.auto.submitted)
}
