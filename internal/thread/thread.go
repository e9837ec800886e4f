// Package thread derives reply trees from a flat, case-scoped comment list.
// Nothing here is persisted; every view is recomputed from the list it is given.
package thread

import "CaseComments/internal/models"

// Children returns the direct replies to parentID in list order.
// An empty parentID selects top-level comments.
func Children(comments []*models.Comment, parentID string) []*models.Comment {
	out := []*models.Comment{}
	for _, c := range comments {
		if parentOf(c) == parentID {
			out = append(out, c)
		}
	}
	return out
}

// Build returns the top-level comments with their replies attached recursively.
// Replies whose parent is missing from the list are not reachable and are left out.
// Every node has a single parent, so a parent cycle is never reachable from a root.
func Build(comments []*models.Comment) []*models.CommentNode {
	nodes := make(map[string]*models.CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &models.CommentNode{Comment: c, Children: []*models.CommentNode{}}
	}

	roots := []*models.CommentNode{}
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok && parent != node {
			parent.Children = append(parent.Children, node)
		}
	}

	return roots
}

// Orphans returns replies whose parent is not in the list.
func Orphans(comments []*models.Comment) []*models.Comment {
	ids := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		ids[c.ID] = struct{}{}
	}
	out := []*models.Comment{}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := ids[*c.ParentID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits the forest depth first, parents before their replies.
func Walk(roots []*models.CommentNode, fn func(node *models.CommentNode, depth int)) {
	var visit func(level []*models.CommentNode, depth int)
	visit = func(level []*models.CommentNode, depth int) {
		for _, n := range level {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(roots, 0)
}

func parentOf(c *models.Comment) string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}
