package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rogersnm/errand/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// RenderChecked draws the checkbox for a task.
func RenderChecked(checked, overdue bool) string {
	switch {
	case checked:
		return doneStyle.Render("[x]")
	case overdue:
		return overdueStyle.Render("[!]")
	default:
		return openStyle.Render("[ ]")
	}
}

// FormatDue renders a due date as a date, a date and time, or "-".
func FormatDue(d *model.Due) string {
	t, ok := d.Resolve()
	if !ok {
		return "-"
	}
	s := t.Format("2006-01-02")
	if d.HasTime {
		s = t.Format("2006-01-02 15:04")
	}
	if d.Recurring && d.Recurrence != model.RecurrenceNone {
		n := max(d.Interval, 1)
		if n == 1 {
			s += fmt.Sprintf(" (%s)", d.Recurrence)
		} else {
			s += fmt.Sprintf(" (every %d, %s)", n, d.Recurrence)
		}
	}
	return s
}

func RenderField(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func RenderEntityHeader(title string, fields []string) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString("  " + f + "\n")
	}
	return sb.String()
}
