// Package grammar reads and writes the tagged-call notation used to embed
// actions in free text:
//
//	<|action|>navigate(url=https://example.com)
//
// Values are not escaped, so a value containing ',' or ')', or one with
// surrounding whitespace, does not survive a round trip.
package grammar

import (
	"errors"
	"fmt"
	"strings"

	"browser-pilot/internal/domain/entity"
)

// Marker opens every tagged call.
const Marker = "<|action|>"

// specialPrefix starts any special token; a tagged call ends at the next one.
const specialPrefix = "<|"

var (
	ErrMissingMarker = errors.New("missing action marker")
	ErrUnknownKind   = errors.New("unknown action kind")
)

// GrammarError describes a tagged call that could not be parsed.
type GrammarError struct {
	Input string
	Err   error
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("grammar: %v: %q", e.Err, e.Input)
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// Serialize renders an action as a tagged call, parameters in insertion order.
func Serialize(a entity.Action) string {
	params := a.Params.All()
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return fmt.Sprintf("%s%s(%s)", Marker, a.Kind, strings.Join(parts, ", "))
}

// Parse reads exactly one tagged call. Text after the closing parenthesis is
// ignored.
func Parse(text string) (entity.Action, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Marker) {
		return entity.Action{}, &GrammarError{Input: text, Err: ErrMissingMarker}
	}
	body := strings.TrimPrefix(text, Marker)

	name, rest, hasArgs := strings.Cut(body, "(")
	kind := entity.ActionKind(strings.TrimSpace(name))
	if !kind.Valid() {
		return entity.Action{}, &GrammarError{Input: text, Err: ErrUnknownKind}
	}

	var params entity.Params
	if hasArgs {
		args, _, _ := strings.Cut(rest, ")")
		params = parseParams(args)
	}

	return entity.NewAction(kind, params, ""), nil
}

func parseParams(args string) entity.Params {
	var params entity.Params
	for _, token := range strings.Split(args, ",") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params = params.With(key, strings.TrimSpace(value))
	}
	return params
}

// ScanResult holds the actions recovered from a blob plus the number of
// tagged segments that failed to parse.
type ScanResult struct {
	Actions []entity.Action
	Skipped int
	Errors  []error
}

// Scan extracts every tagged call from text. Malformed segments are skipped
// and counted; they never invalidate the rest of the blob.
func Scan(text string) ScanResult {
	var res ScanResult

	segments := strings.Split(text, Marker)
	for _, seg := range segments[1:] {
		if end := strings.Index(seg, specialPrefix); end >= 0 {
			seg = seg[:end]
		}
		action, err := Parse(Marker + strings.TrimSpace(seg))
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Actions = append(res.Actions, action)
	}

	return res
}

// Strip removes every tagged call from a model reply, leaving the
// conversational text.
func Strip(text string) string {
	if !strings.Contains(text, Marker) {
		return strings.TrimSpace(text)
	}

	var sb strings.Builder
	rest := text
	for {
		idx := strings.Index(rest, Marker)
		if idx < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:idx])
		rest = rest[idx+len(Marker):]
		end := strings.Index(rest, specialPrefix)
		if end < 0 {
			break
		}
		rest = rest[end:]
	}
	return strings.TrimSpace(sb.String())
}
