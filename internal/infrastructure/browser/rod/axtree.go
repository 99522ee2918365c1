package rod

import (
	"github.com/go-rod/rod/lib/proto"

	"browser-pilot/internal/domain/entity"
)

// wrapperRoles carry no meaning of their own when they have no name.
var wrapperRoles = map[string]bool{
	"generic":         true,
	"none":            true,
	"presentation":    true,
	"LayoutTable":     true,
	"LayoutTableRow":  true,
	"LayoutTableCell": true,
}

// buildTree links the flat CDP node list into a tree. Ignored nodes, nameless
// wrappers and InlineTextBox fragments are dropped and their children
// attached to the nearest kept ancestor, so depth counts only meaningful
// levels.
func buildTree(nodes []*proto.AccessibilityAXNode) *entity.AXNode {
	if len(nodes) == 0 {
		return nil
	}

	byID := make(map[proto.AccessibilityAXNodeID]*proto.AccessibilityAXNode, len(nodes))
	for _, n := range nodes {
		byID[n.NodeID] = n
	}

	root := nodes[0]
	for _, n := range nodes {
		if _, hasParent := byID[n.ParentID]; n.ParentID == "" || !hasParent {
			root = n
			break
		}
	}

	visited := make(map[proto.AccessibilityAXNodeID]bool, len(nodes))
	var convert func(n *proto.AccessibilityAXNode) []*entity.AXNode
	convert = func(n *proto.AccessibilityAXNode) []*entity.AXNode {
		if n == nil || visited[n.NodeID] {
			return nil
		}
		visited[n.NodeID] = true

		var children []*entity.AXNode
		for _, id := range n.ChildIDs {
			children = append(children, convert(byID[id])...)
		}

		node := &entity.AXNode{
			Role:        axString(n.Role),
			Name:        axString(n.Name),
			Value:       axString(n.Value),
			Description: axString(n.Description),
			Children:    children,
		}
		if n.Ignored || (n != root && collapsible(node)) {
			return children
		}
		return []*entity.AXNode{node}
	}

	top := convert(root)
	switch len(top) {
	case 0:
		return nil
	case 1:
		return top[0]
	default:
		return &entity.AXNode{Children: top}
	}
}

func collapsible(n *entity.AXNode) bool {
	if n.Role == "InlineTextBox" {
		return true
	}
	return wrapperRoles[n.Role] && n.Name == "" && n.Value == "" && n.Description == ""
}

func axString(v *proto.AccessibilityAXValue) string {
	if v == nil || v.Value.Nil() {
		return ""
	}
	return v.Value.Str()
}
