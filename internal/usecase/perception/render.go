package perception

import (
	"fmt"
	"strings"

	"browser-pilot/internal/domain/entity"
)

// Render produces the text block handed to the model. At most maxElements
// interactive elements are listed; maxElements <= 0 means the default.
func Render(p *entity.Perception, maxElements int) string {
	if maxElements <= 0 {
		maxElements = DefaultMaxElements
	}
	if p == nil {
		p = &entity.Perception{}
	}

	title := p.Title
	if title == "" {
		title = "Unknown"
	}
	summary := p.Summary
	if summary == "" {
		summary = noElementsFound
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== PAGE: %s ===\n", title)
	fmt.Fprintf(&sb, "URL: %s\n", p.URL)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "SUMMARY: %s\n", summary)
	sb.WriteString("\n")
	sb.WriteString("=== INTERACTIVE ELEMENTS ===")

	elements := p.InteractiveElements
	if len(elements) > maxElements {
		elements = elements[:maxElements]
	}

	for i, el := range elements {
		name := el.Name
		if name == "" {
			name = "unnamed"
		}
		fmt.Fprintf(&sb, "\n[%d] %s: %s", i+1, strings.ToUpper(el.Role), name)
		if el.Value != "" {
			fmt.Fprintf(&sb, " (value: %s)", el.Value)
		}
	}

	return sb.String()
}
