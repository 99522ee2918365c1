package service

import (
	"testing"

	"browser-pilot/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://youtube.com/watch?v=1", false},
		{"https://8.8.8.8/", false},
		{"ftp://example.com", true},
		{"javascript:alert(1)", true},
		{"file:///etc/passwd", true},
		{"http://localhost:8080", true},
		{"http://api.localhost", true},
		{"http://127.0.0.1", true},
		{"http://0.0.0.0", true},
		{"http://[::1]/", true},
		{"http://192.168.1.10", true},
		{"http://10.0.0.1", true},
		{"http://169.254.169.254/latest/meta-data", true},
		{"https://", true},
		{"http://2130706433/", true},
		{"http://127.1/", true},
		{"http://0x7f000001/", true},
		{"http://017700000001/", true},
		{"http://0x7f.0.0.1/", true},
		{"http://0177.0.0.1/", true},
		{"http://10.1/", true},
		{"http://0/", true},
		{"http://localhost./", true},
		{"http://127.0.0.1./", true},
		{"http://[::ffff:127.0.0.1]/", true},
		{"http://1.2.3.4.5/", true},
		{"http://99999999999/", true},
		{"http://08.0.0.1/", true},
		{"http://134744072/", false},
		{"http://8.8.8.8./", false},
		{"http://example.com./", false},
		{"http://v2.example/", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := CheckURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActionValidator(t *testing.T) {
	v := NewActionValidator(nil)

	assert.NoError(t, v.Validate(entity.NewAction(entity.ActionClick, entity.NewParams("selector", "#go"), "")))
	assert.NoError(t, v.Validate(entity.NewAction(entity.ActionNavigate, entity.NewParams("url", "https://example.com"), "")))

	err := v.Validate(entity.NewAction(entity.ActionDeny, entity.NewParams("reason", "no"), ""))
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	err = v.Validate(entity.NewAction(entity.ActionNavigate, entity.NewParams("url", "http://127.0.0.1:7861"), ""))
	assert.ErrorIs(t, err, ErrUnsafeURL)
}

func TestActionValidator_Filter(t *testing.T) {
	v := NewActionValidator([]entity.ActionKind{entity.ActionNavigate, entity.ActionSearch})

	in := []entity.Action{
		entity.NewAction(entity.ActionNavigate, entity.NewParams("url", "https://youtube.com"), ""),
		entity.NewAction(entity.ActionClick, entity.NewParams("selector", "a"), ""),
		entity.NewAction(entity.ActionNavigate, entity.NewParams("url", "http://localhost"), ""),
		entity.NewAction(entity.ActionSearch, entity.NewParams("query", "cats"), ""),
	}

	allowed, blocked := v.Filter(in)
	require.Len(t, allowed, 2)
	require.Len(t, blocked, 2)
	assert.Equal(t, entity.ActionNavigate, allowed[0].Kind)
	assert.Equal(t, entity.ActionSearch, allowed[1].Kind)
	assert.Equal(t, entity.ActionClick, blocked[0].Kind)
	assert.Equal(t, "http://localhost", blocked[1].Param("url"))
}

func TestHandlerRegistry(t *testing.T) {
	noop := func(kind entity.ActionKind) ActionHandler {
		return NewHandlerFunc(kind, nil)
	}
	r := NewHandlerRegistry(noop(entity.ActionScroll), noop(entity.ActionClick))

	h, ok := r.Get(entity.ActionClick)
	require.True(t, ok)
	assert.Equal(t, entity.ActionClick, h.Kind())

	_, ok = r.Get(entity.ActionSearch)
	assert.False(t, ok)

	assert.Equal(t, []entity.ActionKind{entity.ActionClick, entity.ActionScroll}, r.Kinds())
}
