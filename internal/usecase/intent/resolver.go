package intent

import (
	"fmt"
	"regexp"
	"strings"

	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/domain/grammar"
)

// Policy decides which source wins when both the model reply and the user
// message yield actions.
type Policy int

const (
	// PreferModel uses message patterns only when the reply has no tags.
	PreferModel Policy = iota
	// PreferMessage uses message patterns whenever they match.
	PreferMessage
)

func (p Policy) String() string {
	switch p {
	case PreferModel:
		return "model"
	case PreferMessage:
		return "message"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "model", "prefer_model":
		return PreferModel, nil
	case "message", "prefer_message":
		return PreferMessage, nil
	default:
		return PreferModel, fmt.Errorf("unknown intent policy %q", s)
	}
}

var (
	navigateThenSearch = regexp.MustCompile(`(?is)\b(?:navigate to|go to|open|visit)\s+(.+?)\s+and\s+search(?:\s+for)?\s+(.+)$`)
	searchOnSite       = regexp.MustCompile(`(?is)\bsearch(?:\s+for)?\s+(.+?)\s+(?:on|in)\s+(\S+)\s*$`)
	navigation         = regexp.MustCompile(`(?is)\b(?:navigate to|go to|open|visit)\s+(.+)$`)
	trailingClause     = regexp.MustCompile(`(?is)\s+and\s+(?:search|look|find)\b.*$`)
	standaloneSearch   = regexp.MustCompile(`(?is)\bsearch(?:\s+for)?\s+(.+)$`)
)

type Resolution struct {
	Actions []entity.Action
	Source  entity.IntentSource
	// Skipped counts malformed tagged segments in the model reply.
	Skipped int
}

type Resolver struct {
	policy Policy
}

func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve produces the ordered actions for one turn. An empty result is not
// an error.
func (r *Resolver) Resolve(message, reply string) Resolution {
	scan := grammar.Scan(reply)
	res := Resolution{Source: entity.SourceNone, Skipped: scan.Skipped}

	switch r.policy {
	case PreferMessage:
		if actions := FromMessage(message); len(actions) > 0 {
			res.Actions, res.Source = actions, entity.SourceMessage
		} else if len(scan.Actions) > 0 {
			res.Actions, res.Source = scan.Actions, entity.SourceModel
		}
	default:
		if len(scan.Actions) > 0 {
			res.Actions, res.Source = scan.Actions, entity.SourceModel
		} else if actions := FromMessage(message); len(actions) > 0 {
			res.Actions, res.Source = actions, entity.SourceMessage
		}
	}

	return res
}

// FromMessage applies the keyword layers to a user message: compound intents
// first, then single navigation, then a bare search.
func FromMessage(message string) []entity.Action {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	if m := navigateThenSearch.FindStringSubmatch(message); m != nil {
		if actions := navigateAndSearch(m[1], m[2]); actions != nil {
			return actions
		}
	}
	if m := searchOnSite.FindStringSubmatch(message); m != nil {
		if actions := navigateAndSearch(m[2], m[1]); actions != nil {
			return actions
		}
	}

	if m := navigation.FindStringSubmatch(message); m != nil {
		target := trailingClause.ReplaceAllString(m[1], "")
		if url := NormalizeURL(target); url != "" {
			return []entity.Action{navigateAction(url)}
		}
	}

	if m := standaloneSearch.FindStringSubmatch(message); m != nil {
		if query := cleanCapture(m[1]); query != "" {
			return []entity.Action{searchAction(query)}
		}
	}

	return nil
}

func navigateAndSearch(site, query string) []entity.Action {
	url := NormalizeURL(site)
	query = cleanCapture(query)
	if url == "" || query == "" {
		return nil
	}
	return []entity.Action{navigateAction(url), searchAction(query)}
}

func navigateAction(url string) entity.Action {
	return entity.NewAction(
		entity.ActionNavigate,
		entity.NewParams("url", url),
		fmt.Sprintf("User asked to navigate to %s", url),
	)
}

func searchAction(query string) entity.Action {
	return entity.NewAction(
		entity.ActionSearch,
		entity.NewParams("query", query),
		fmt.Sprintf("User asked to search for %s", query),
	)
}
