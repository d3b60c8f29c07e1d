package service

import "CommentUI/internal/models"

// Find returns the comment with id anywhere in the tree, or nil.
func Find(list []*models.Comment, id string) *models.Comment {
	for _, c := range list {
		if c.ID == id {
			return c
		}
		if found := Find(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// Replace swaps the comment with id for updated, wherever it sits in the tree.
// Existing replies are kept when updated carries none.
func Replace(list []*models.Comment, id string, updated *models.Comment) bool {
	for i, c := range list {
		if c.ID == id {
			if updated.Replies == nil {
				updated.Replies = c.Replies
			}
			if updated.Parent == "" {
				updated.Parent = c.Parent
			}
			list[i] = updated
			return true
		}
		if Replace(c.Replies, id, updated) {
			return true
		}
	}
	return false
}

// Remove drops the comment with id and its subtree.
func Remove(list []*models.Comment, id string) ([]*models.Comment, bool) {
	for i, c := range list {
		if c.ID == id {
			out := make([]*models.Comment, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
		if replies, ok := Remove(c.Replies, id); ok {
			c.Replies = replies
			return list, true
		}
	}
	return list, false
}

// Count returns the number of comments in the tree, replies included.
func Count(list []*models.Comment) int {
	n := 0
	for _, c := range list {
		n += 1 + Count(c.Replies)
	}
	return n
}

// Nest attaches entries of a flat list under the parent they reference, when that parent is in the list.
// Entries whose parent is missing, or that would close a cycle, stay at the top level.
// Every identifier appears at most once in the result.
func Nest(flat []*models.Comment) []*models.Comment {
	byID := make(map[string]*models.Comment, len(flat))
	for _, c := range flat {
		if c == nil || c.ID == "" {
			continue
		}
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = c
		}
	}

	roots := make([]*models.Comment, 0, len(flat))
	for _, c := range flat {
		if c == nil || (c.ID != "" && byID[c.ID] != c) {
			continue
		}
		parent, ok := byID[c.Parent]
		if c.Parent == "" || !ok || closesCycle(byID, c) {
			roots = append(roots, c)
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}
	return dedupe(roots, make(map[string]bool))
}

func closesCycle(byID map[string]*models.Comment, c *models.Comment) bool {
	seen := map[string]bool{c.ID: true}
	for p := c.Parent; p != ""; {
		if seen[p] {
			return true
		}
		seen[p] = true
		next, ok := byID[p]
		if !ok {
			return false
		}
		p = next.Parent
	}
	return false
}

func dedupe(list []*models.Comment, seen map[string]bool) []*models.Comment {
	if list == nil {
		return nil
	}
	out := make([]*models.Comment, 0, len(list))
	for _, c := range list {
		if c.ID != "" {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
		}
		c.Replies = dedupe(c.Replies, seen)
		out = append(out, c)
	}
	return out
}
