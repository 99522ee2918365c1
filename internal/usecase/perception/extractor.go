// Package perception turns a page's accessibility tree into the bounded text
// block the language model sees.
package perception

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

const (
	DefaultMaxDepth    = 5
	DefaultMaxElements = 50

	maxKeyNames     = 5
	noElementsFound = "No interactive elements found"
)

var ErrNoTree = errors.New("no accessibility tree available")

var interactiveRoles = map[string]bool{
	"button":    true,
	"link":      true,
	"textbox":   true,
	"searchbox": true,
	"checkbox":  true,
	"radio":     true,
	"combobox":  true,
	"listbox":   true,
	"menuitem":  true,
	"tab":       true,
	"switch":    true,
}

func IsInteractive(role string) bool {
	return interactiveRoles[role]
}

type Extractor struct {
	maxDepth int
}

func NewExtractor(maxDepth int) *Extractor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Extractor{maxDepth: maxDepth}
}

func (e *Extractor) MaxDepth() int {
	return e.maxDepth
}

// Extract pulls a fresh tree from src and simplifies it. Nothing is cached
// between calls.
func (e *Extractor) Extract(ctx context.Context, src output.PageSource) (*entity.Perception, error) {
	raw, err := src.AccessibilityTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("accessibility tree: %w", err)
	}
	if raw == nil {
		return nil, ErrNoTree
	}

	info, err := src.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	tree := Simplify(raw, e.maxDepth)
	elements := InteractiveElements(tree)

	return &entity.Perception{
		URL:                 info.URL,
		Title:               info.Title,
		Tree:                tree,
		InteractiveElements: elements,
		Summary:             Summarize(elements),
	}, nil
}

// Simplify copies role, name, value and description down to maxDepth edges
// below the root. Nodes with nothing informative and no surviving children
// are dropped, as is everything deeper than maxDepth.
func Simplify(node *entity.AXNode, maxDepth int) *entity.AXNode {
	return simplify(node, 0, maxDepth)
}

func simplify(node *entity.AXNode, depth, maxDepth int) *entity.AXNode {
	if node == nil || depth > maxDepth {
		return nil
	}

	out := &entity.AXNode{
		Role:        node.Role,
		Name:        node.Name,
		Value:       node.Value,
		Description: node.Description,
	}

	for _, child := range node.Children {
		if c := simplify(child, depth+1, maxDepth); c != nil {
			out.Children = append(out.Children, c)
		}
	}

	if !out.Informative() && len(out.Children) == 0 {
		return nil
	}
	return out
}

// InteractiveElements walks the tree pre-order and keeps whitelisted roles.
func InteractiveElements(tree *entity.AXNode) []entity.InteractiveElement {
	var out []entity.InteractiveElement
	var walk func(n *entity.AXNode)
	walk = func(n *entity.AXNode) {
		if n == nil {
			return
		}
		if IsInteractive(n.Role) {
			out = append(out, entity.InteractiveElement{Role: n.Role, Name: n.Name, Value: n.Value})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree)
	return out
}

// Summarize counts roles in first-seen order and names a few buttons and links.
func Summarize(elements []entity.InteractiveElement) string {
	var (
		parts   []string
		order   []string
		counts  = make(map[string]int)
		buttons []string
		links   []string
	)

	for _, el := range elements {
		if _, ok := counts[el.Role]; !ok {
			order = append(order, el.Role)
		}
		counts[el.Role]++

		if el.Name == "" {
			continue
		}
		switch el.Role {
		case "button":
			if len(buttons) < maxKeyNames {
				buttons = append(buttons, el.Name)
			}
		case "link":
			if len(links) < maxKeyNames {
				links = append(links, el.Name)
			}
		}
	}

	if len(order) > 0 {
		tallies := make([]string, 0, len(order))
		for _, role := range order {
			tallies = append(tallies, fmt.Sprintf("%d %s(s)", counts[role], role))
		}
		parts = append(parts, "Interactive elements: "+strings.Join(tallies, ", "))
	}
	if len(buttons) > 0 {
		parts = append(parts, "Key buttons: "+strings.Join(buttons, ", "))
	}
	if len(links) > 0 {
		parts = append(parts, "Key links: "+strings.Join(links, ", "))
	}

	if len(parts) == 0 {
		return noElementsFound
	}
	return strings.Join(parts, " | ")
}
