package tree

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rogersnm/errand/internal/model"
)

const (
	branch     = "├── "
	lastBranch = "└── "
	pipe       = "│   "
	blank      = "    "
)

var (
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // white
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

type renderer struct {
	tree *Tree
	now  time.Time
	sb   strings.Builder
}

// RenderASCII draws each root and its subtasks with box-drawing connectors.
// Completed tasks render green and overdue ones red. Tasks caught in a parent
// loop have no root and are left out; ValidateAcyclic reports them.
func RenderASCII(t *Tree, now time.Time) string {
	roots := t.Roots()
	if len(roots) == 0 {
		return "No tasks."
	}
	r := &renderer{tree: t, now: now}
	for i, id := range roots {
		if i > 0 {
			r.sb.WriteByte('\n')
		}
		r.line("", id)
		r.children(blank, id)
	}
	return r.sb.String()
}

func (r *renderer) children(indent, parent string) {
	kids := r.tree.Children(parent)
	for i, id := range kids {
		last := i == len(kids)-1
		if last {
			r.line(indent+lastBranch, id)
		} else {
			r.line(indent+branch, id)
		}
		next := indent + pipe
		if last {
			next = indent + blank
		}
		r.children(next, id)
	}
}

func (r *renderer) line(prefix, id string) {
	t := r.tree.Node(id)
	r.sb.WriteString(prefix)
	r.sb.WriteString(style(t, r.now).Render(label(t)))
	r.sb.WriteByte('\n')
}

func label(t *model.Task) string {
	box := "[ ]"
	if t.Checked {
		box = "[x]"
	}
	s := box + " " + t.ID + " " + t.Content
	if t.Pinned {
		s += " *"
	}
	return s
}

func style(t *model.Task, now time.Time) lipgloss.Style {
	switch {
	case t.Checked:
		return doneStyle
	case t.IsOverdue(now):
		return overdueStyle
	default:
		return openStyle
	}
}
