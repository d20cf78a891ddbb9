package markdown

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rogersnm/errand/internal/model"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
)

// Names resolves project and label ids to display names. Unknown ids are
// shown as-is.
type Names struct {
	Projects map[string]string
	Labels   map[string]string
}

func (n Names) project(id string) string {
	if name, ok := n.Projects[id]; ok {
		return name
	}
	return id
}

func (n Names) labels(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if name, ok := n.Labels[id]; ok {
			out[i] = "@" + name
		}
	}
	return strings.Join(out, " ")
}

func RenderTaskTable(tasks []*model.Task, names Names, now time.Time) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			t.ID,
			RenderChecked(t.Checked, t.IsOverdue(now)) + " " + t.Content,
			model.FormatPriority(t.Priority),
			FormatDue(t.Due),
			names.project(t.ProjectID),
			names.labels(t.Labels),
		}
	}
	return renderTable([]string{"ID", "Task", "Pri", "Due", "Project", "Labels"}, rows)
}

func RenderProjectTable(projects []*model.Project, open map[string]int) string {
	if len(projects) == 0 {
		return "No projects found."
	}
	rows := make([][]string, len(projects))
	for i, p := range projects {
		name := p.Name
		if p.Favorite {
			name += " *"
		}
		rows[i] = []string{p.ID, name, strconv.Itoa(open[p.ID]), p.CreatedAt.Format("2006-01-02")}
	}
	return renderTable([]string{"ID", "Name", "Open", "Created"}, rows)
}

func RenderSectionTable(sections []*model.Section, names Names) string {
	if len(sections) == 0 {
		return "No sections found."
	}
	rows := make([][]string, len(sections))
	for i, s := range sections {
		rows[i] = []string{s.ID, s.Name, names.project(s.ProjectID)}
	}
	return renderTable([]string{"ID", "Name", "Project"}, rows)
}

func RenderLabelTable(labels []*model.Label) string {
	if len(labels) == 0 {
		return "No labels found."
	}
	rows := make([][]string, len(labels))
	for i, l := range labels {
		rows[i] = []string{l.ID, l.Name, l.Color}
	}
	return renderTable([]string{"ID", "Name", "Color"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			return cellStyle
		})
	return t.Render()
}
