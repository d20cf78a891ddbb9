// Package tree builds the subtask hierarchy formed by Task.ParentID.
package tree

import (
	"fmt"
	"strings"

	"github.com/rogersnm/errand/internal/model"
)

// Tree is a forest of tasks. A task whose parent is missing from the input
// is treated as a root.
type Tree struct {
	nodes    map[string]*model.Task
	order    []string
	children map[string][]string
}

func Build(tasks []*model.Task) *Tree {
	t := &Tree{
		nodes:    make(map[string]*model.Task, len(tasks)),
		children: make(map[string][]string),
	}
	for _, task := range tasks {
		if _, dup := t.nodes[task.ID]; !dup {
			t.order = append(t.order, task.ID)
		}
		t.nodes[task.ID] = task
	}
	for _, id := range t.order {
		if p := t.nodes[id].ParentID; p != "" {
			t.children[p] = append(t.children[p], id)
		}
	}
	return t
}

func (t *Tree) Node(id string) *model.Task {
	return t.nodes[id]
}

// Roots returns tasks without a known parent, in input order.
func (t *Tree) Roots() []string {
	var roots []string
	for _, id := range t.order {
		p := t.nodes[id].ParentID
		if _, ok := t.nodes[p]; p == "" || !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

func (t *Tree) Children(id string) []string {
	return t.children[id]
}

// Descendants returns every task below id, depth first.
func (t *Tree) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(node string) {
		for _, c := range t.children[node] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// ValidateAcyclic follows every parent chain and reports the first loop.
func (t *Tree) ValidateAcyclic() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(t.nodes))
	for _, start := range t.order {
		var path []string
		cur := start
		for cur != "" && state[cur] == unvisited {
			if _, ok := t.nodes[cur]; !ok {
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			cur = t.nodes[cur].ParentID
		}
		if cur != "" && state[cur] == onPath {
			return fmt.Errorf("cycle detected: %s", cyclePath(path, cur))
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return nil
}

func cyclePath(path []string, to string) string {
	for i, id := range path {
		if id == to {
			return strings.Join(append(path[i:], to), " -> ")
		}
	}
	return to
}

// CheckParent reports whether making parentID the parent of id would form a
// loop or point at a missing task.
func (t *Tree) CheckParent(id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if _, ok := t.nodes[parentID]; !ok {
		return fmt.Errorf("parent task %s not found", parentID)
	}
	seen := make(map[string]bool)
	for cur := parentID; cur != "" && !seen[cur]; {
		if cur == id {
			return fmt.Errorf("task %s cannot be nested under its own subtask %s", id, parentID)
		}
		seen[cur] = true
		n, ok := t.nodes[cur]
		if !ok {
			break
		}
		cur = n.ParentID
	}
	return nil
}
