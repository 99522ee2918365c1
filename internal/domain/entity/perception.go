package entity

// AXNode is a node of an accessibility tree. The browser adapter produces raw
// trees of this shape; the perception extractor produces simplified ones.
type AXNode struct {
	Role        string    `json:"role,omitempty"`
	Name        string    `json:"name,omitempty"`
	Value       string    `json:"value,omitempty"`
	Description string    `json:"description,omitempty"`
	Children    []*AXNode `json:"children,omitempty"`
}

// Informative reports whether any of the four copied fields is set.
func (n *AXNode) Informative() bool {
	return n != nil && (n.Role != "" || n.Name != "" || n.Value != "" || n.Description != "")
}

// Depth is the number of edges on the longest root-to-leaf path.
func (n *AXNode) Depth() int {
	if n == nil {
		return -1
	}
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

type InteractiveElement struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Perception is the extracted, simplified view of a page.
type Perception struct {
	URL                 string               `json:"url"`
	Title               string               `json:"title"`
	Tree                *AXNode              `json:"tree,omitempty"`
	InteractiveElements []InteractiveElement `json:"interactive_elements"`
	Summary             string               `json:"summary"`
}

// PerceptionResult is what the controller hands to callers: either the
// rendered text with its tree, or an error message.
type PerceptionResult struct {
	Success bool        `json:"success"`
	Text    string      `json:"text,omitempty"`
	Tree    *Perception `json:"tree,omitempty"`
	Error   string      `json:"error,omitempty"`
}
