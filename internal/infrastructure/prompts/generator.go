package prompts

import (
	"bytes"
	"text/template"

	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/domain/grammar"
)

type ActionInfo struct {
	Name        string
	Example     string
	Description string
}

type SystemPromptData struct {
	ModeDescription string
	BrowserEnabled  bool
	Marker          string
	Actions         []ActionInfo
	PageContext     string
}

type PromptOptions struct {
	Mode           string
	BrowserEnabled bool
	Kinds          []entity.ActionKind
	PageContext    string
}

var catalog = map[entity.ActionKind]struct {
	params      entity.Params
	description string
}{
	entity.ActionNavigate:   {entity.NewParams("url", "https://example.com"), "open a URL"},
	entity.ActionClick:      {entity.NewParams("selector", "#submit"), "click the element matching a CSS selector"},
	entity.ActionType:       {entity.NewParams("selector", "#email", "text", "hello"), "fill a field"},
	entity.ActionScroll:     {entity.NewParams("direction", "down", "amount", "500"), "scroll the page by pixels"},
	entity.ActionScreenshot: {entity.Params{}, "capture the page"},
	entity.ActionGetText:    {entity.NewParams("selector", "body"), "read the text of an element"},
	entity.ActionGetLinks:   {entity.Params{}, "list links on the page"},
	entity.ActionSearch:     {entity.NewParams("query", "cute cats"), "type into the page's search box and submit"},
	entity.ActionRemember:   {entity.NewParams("key", "name", "value", "Ada"), "remember a fact for later"},
	entity.ActionRecall:     {entity.NewParams("key", "name"), "recall a remembered fact"},
	entity.ActionReflect:    {entity.NewParams("thought", "the page needs a login"), "note a thought without acting"},
	entity.ActionDeny:       {entity.NewParams("reason", "unsafe request"), "refuse a request"},
}

// Actions describes kinds in the order given. Unknown kinds are skipped.
func Actions(kinds []entity.ActionKind) []ActionInfo {
	infos := make([]ActionInfo, 0, len(kinds))
	for _, kind := range kinds {
		entry, ok := catalog[kind]
		if !ok {
			continue
		}
		infos = append(infos, ActionInfo{
			Name:        kind.String(),
			Example:     grammar.Serialize(entity.NewAction(kind, entry.params, "")),
			Description: entry.description,
		})
	}
	return infos
}

func GenerateSystemPrompt(baseTemplate string, opts PromptOptions) (string, error) {
	data := SystemPromptData{
		ModeDescription: ModeDescription(opts.Mode),
		BrowserEnabled:  opts.BrowserEnabled,
		Marker:          grammar.Marker,
		Actions:         Actions(opts.Kinds),
		PageContext:     opts.PageContext,
	}

	tmpl, err := template.New("system").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
