package intent

import (
	"testing"

	"browser-pilot/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wantAction struct {
	kind  entity.ActionKind
	key   string
	value string
}

func assertActions(t *testing.T, want []wantAction, got []entity.Action) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, got[i].Kind, "action %d kind", i)
		assert.Equal(t, w.value, got[i].Param(w.key), "action %d %s", i, w.key)
		assert.Equal(t, 1, got[i].Params.Len(), "action %d params", i)
	}
}

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []wantAction
	}{
		{
			name:    "navigate then search",
			message: "go to youtube and search cat videos",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://youtube.com"},
				{entity.ActionSearch, "query", "cat videos"},
			},
		},
		{
			name:    "navigate to then search for",
			message: "Navigate to news.ycombinator.com and search for rust",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://news.ycombinator.com"},
				{entity.ActionSearch, "query", "rust"},
			},
		},
		{
			name:    "search on site",
			message: "search for lo-fi beats on youtube",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://youtube.com"},
				{entity.ActionSearch, "query", "lo-fi beats"},
			},
		},
		{
			name:    "search in site",
			message: "search golang generics in reddit",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://reddit.com"},
				{entity.ActionSearch, "query", "golang generics"},
			},
		},
		{
			name:    "standalone search",
			message: "search for rust programming",
			want: []wantAction{
				{entity.ActionSearch, "query", "rust programming"},
			},
		},
		{
			name:    "search keeps casing and trims punctuation",
			message: "Search for Rust Programming?",
			want: []wantAction{
				{entity.ActionSearch, "query", "Rust Programming"},
			},
		},
		{
			name:    "single navigation",
			message: "please open github.com",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://github.com"},
			},
		},
		{
			name:    "visit known site",
			message: "visit stackoverflow!",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://stackoverflow.com"},
			},
		},
		{
			name:    "trailing look clause stripped",
			message: "go to example.org and look around",
			want: []wantAction{
				{entity.ActionNavigate, "url", "https://example.org"},
			},
		},
		{
			name:    "explicit scheme kept",
			message: "navigate to http://example.com/path",
			want: []wantAction{
				{entity.ActionNavigate, "url", "http://example.com/path"},
			},
		},
		{
			name:    "no match",
			message: "how are you today?",
			want:    nil,
		},
		{
			name:    "word boundary",
			message: "I did some research yesterday",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertActions(t, tt.want, FromMessage(tt.message))
		})
	}
}

func TestResolve_PreferModel(t *testing.T) {
	r := NewResolver(PreferModel)

	res := r.Resolve("go to youtube", "On it <|action|>navigate(url=https://vimeo.com)")
	assert.Equal(t, entity.SourceModel, res.Source)
	assertActions(t, []wantAction{{entity.ActionNavigate, "url", "https://vimeo.com"}}, res.Actions)

	res = r.Resolve("go to youtube", "Sure thing.")
	assert.Equal(t, entity.SourceMessage, res.Source)
	assertActions(t, []wantAction{{entity.ActionNavigate, "url", "https://youtube.com"}}, res.Actions)
}

func TestResolve_PreferModelFallsBackWhenTagsMalformed(t *testing.T) {
	r := NewResolver(PreferModel)

	res := r.Resolve("search for kittens", "<|action|>teleport(x=1)")
	assert.Equal(t, entity.SourceMessage, res.Source)
	assert.Equal(t, 1, res.Skipped)
	assertActions(t, []wantAction{{entity.ActionSearch, "query", "kittens"}}, res.Actions)
}

func TestResolve_PreferMessage(t *testing.T) {
	r := NewResolver(PreferMessage)

	res := r.Resolve("go to youtube", "<|action|>navigate(url=https://vimeo.com)")
	assert.Equal(t, entity.SourceMessage, res.Source)
	assertActions(t, []wantAction{{entity.ActionNavigate, "url", "https://youtube.com"}}, res.Actions)

	res = r.Resolve("what is this?", "<|action|>screenshot()")
	assert.Equal(t, entity.SourceModel, res.Source)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, entity.ActionScreenshot, res.Actions[0].Kind)
}

func TestResolve_Nothing(t *testing.T) {
	for _, p := range []Policy{PreferModel, PreferMessage} {
		res := NewResolver(p).Resolve("hello", "hi there")
		assert.Empty(t, res.Actions)
		assert.Equal(t, entity.SourceNone, res.Source)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("message")
	require.NoError(t, err)
	assert.Equal(t, PreferMessage, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PreferModel, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"youtube":             "https://youtube.com",
		"www.youtube.com":     "https://youtube.com",
		"Google":              "https://google.com",
		"duckduckgo":          "https://duckduckgo.com",
		"twitter":             "https://twitter.com",
		"facebook":            "https://facebook.com",
		"stackoverflow":       "https://stackoverflow.com",
		"reddit.":             "https://reddit.com",
		"example.com":         "https://example.com",
		"https://example.com": "https://example.com",
		"  ":                  "",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeURL(in), "input %q", in)
	}
}

func TestShouldTriggerAutomation(t *testing.T) {
	assert.True(t, ShouldTriggerAutomation("Go to YouTube"))
	assert.True(t, ShouldTriggerAutomation("what's on this page?"))
	assert.True(t, ShouldTriggerAutomation("search for cats"))
	assert.False(t, ShouldTriggerAutomation("tell me a joke"))
}
