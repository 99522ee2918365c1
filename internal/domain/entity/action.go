package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionKind is one entry of the closed action vocabulary.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionType       ActionKind = "type"
	ActionScroll     ActionKind = "scroll"
	ActionScreenshot ActionKind = "screenshot"
	ActionGetText    ActionKind = "get_text"
	ActionGetLinks   ActionKind = "get_links"
	ActionSearch     ActionKind = "search"
	ActionRemember   ActionKind = "remember"
	ActionRecall     ActionKind = "recall"
	ActionReflect    ActionKind = "reflect"
	ActionDeny       ActionKind = "deny"
)

var actionKinds = []ActionKind{
	ActionNavigate,
	ActionClick,
	ActionType,
	ActionScroll,
	ActionScreenshot,
	ActionGetText,
	ActionGetLinks,
	ActionSearch,
	ActionRemember,
	ActionRecall,
	ActionReflect,
	ActionDeny,
}

// ActionKinds returns the vocabulary in declaration order.
func ActionKinds() []ActionKind {
	out := make([]ActionKind, len(actionKinds))
	copy(out, actionKinds)
	return out
}

func (k ActionKind) String() string {
	return string(k)
}

func (k ActionKind) Valid() bool {
	for _, known := range actionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RequiresBrowser reports whether the kind touches the page session.
func (k ActionKind) RequiresBrowser() bool {
	switch k {
	case ActionRemember, ActionRecall, ActionReflect, ActionDeny:
		return false
	}
	return true
}

type Param struct {
	Key   string
	Value string
}

// Params is an insertion-ordered string mapping with unique keys.
// The zero value is empty and ready to use; every mutator returns a copy.
type Params struct {
	items []Param
}

// NewParams builds Params from alternating key/value strings. A trailing key
// without a value is ignored.
func NewParams(kv ...string) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p = p.With(kv[i], kv[i+1])
	}
	return p
}

// With returns a copy with key set to value. An existing key keeps its position.
func (p Params) With(key, value string) Params {
	items := make([]Param, len(p.items), len(p.items)+1)
	copy(items, p.items)
	for i := range items {
		if items[i].Key == key {
			items[i].Value = value
			return Params{items: items}
		}
	}
	return Params{items: append(items, Param{Key: key, Value: value})}
}

func (p Params) Get(key string) (string, bool) {
	for _, item := range p.items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or def when the key is absent or empty.
func (p Params) Value(key, def string) string {
	if v, ok := p.Get(key); ok && v != "" {
		return v
	}
	return def
}

func (p Params) Len() int {
	return len(p.items)
}

func (p Params) All() []Param {
	out := make([]Param, len(p.items))
	copy(out, p.items)
	return out
}

func (p Params) Map() map[string]string {
	out := make(map[string]string, len(p.items))
	for _, item := range p.items {
		out[item.Key] = item.Value
	}
	return out
}

// MarshalJSON writes an object whose member order matches insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range p.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping member order. Non-string scalars are
// kept in their JSON text form so {"amount": 300} becomes "300".
func (p *Params) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Params{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("params must be a JSON object")
	}

	var out Params
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}

		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(bytes.TrimSpace(raw))
		}
		out = out.With(key, s)
	}

	*p = out
	return nil
}

// Action is a single step of browser or meta behavior.
type Action struct {
	Kind      ActionKind `json:"action"`
	Params    Params     `json:"params"`
	Reasoning string     `json:"reasoning,omitempty"`
}

func NewAction(kind ActionKind, params Params, reasoning string) Action {
	return Action{Kind: kind, Params: params, Reasoning: reasoning}
}

func (a Action) Param(key string) string {
	v, _ := a.Params.Get(key)
	return v
}
