package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/rogersnm/errand/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TaskFile(t *testing.T) {
	input := `---
id: TASK-7QK2M9XD
content: "Pick up dry cleaning"
checked: false
project_id: PROJ-H2M4K8QZ
priority: 2
labels:
  - LABEL-AAAAAAAA
  - LABEL-BBBBBBBB
due:
  date: 2026-03-14T00:00:00Z
created_at: 2026-01-01T00:00:00Z
updated_at: 2026-01-01T00:00:00Z
---

Ticket is in the glovebox.
`
	task, body, err := Parse[model.Task](strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "TASK-7QK2M9XD", task.ID)
	assert.Equal(t, "Pick up dry cleaning", task.Content)
	assert.Equal(t, model.PriorityP2, task.Priority)
	assert.Equal(t, []string{"LABEL-AAAAAAAA", "LABEL-BBBBBBBB"}, task.Labels)
	require.NotNil(t, task.Due)
	assert.Equal(t, 14, task.Due.Date.Day())
	assert.Empty(t, task.Description)
	assert.Equal(t, "Ticket is in the glovebox.", body)
}

func TestParse_NoBody(t *testing.T) {
	input := "---\nid: LABEL-AAAAAAAA\nname: home\n---\n"
	label, body, err := Parse[model.Label](strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "home", label.Name)
	assert.Equal(t, "", body)
}

func TestParse_NoFrontmatter(t *testing.T) {
	task, body, err := Parse[model.Task](strings.NewReader("Just some plain markdown."))
	require.NoError(t, err)
	assert.Equal(t, "", task.ID)
	assert.Equal(t, "Just some plain markdown.", body)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, _, err := Parse[model.Task](strings.NewReader("---\n{{invalid yaml\n---\n"))
	assert.Error(t, err)
}

func TestMarshal_TaskRoundTrip(t *testing.T) {
	done := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	original := &model.Task{
		ID:          "TASK-7QK2M9XD",
		Content:     "Round trip",
		Description: "ignored by yaml",
		Checked:     true,
		SectionID:   "SECT-AAAAAAAA",
		ProjectID:   "PROJ-AAAAAAAA",
		Due:         &model.Due{Date: done, HasTime: true},
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt: &done,
	}
	body := "Line 1\n\n```go\nfunc main() {}\n```\n\n**Bold** and *italic*"

	data, err := Marshal(original, body)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ignored by yaml")

	parsed, parsedBody, err := Parse[model.Task](strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, original.ID, parsed.ID)
	assert.Equal(t, original.Checked, parsed.Checked)
	assert.Equal(t, original.SectionID, parsed.SectionID)
	require.NotNil(t, parsed.CompletedAt)
	assert.True(t, done.Equal(*parsed.CompletedAt))
	assert.True(t, parsed.Due.HasTime)
	assert.Equal(t, body, parsedBody)
}

func TestMarshal_EmptyBody(t *testing.T) {
	data, err := Marshal(&model.Project{ID: "PROJ-AAAAAAAA", Name: "No Body"}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "---\n"))

	parsed, body, err := Parse[model.Project](strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, "No Body", parsed.Name)
	assert.Equal(t, "", body)
}

func TestParseRecord_RequiresFrontmatter(t *testing.T) {
	_, _, err := ParseRecord[model.Task](strings.NewReader("Just some plain markdown."))
	assert.ErrorIs(t, err, ErrNoFrontmatter)

	task, body, err := ParseRecord[model.Task](strings.NewReader("---\nid: TASK-AAAAAAAA\ncontent: x\n---\n\nnotes\n"))
	require.NoError(t, err)
	assert.Equal(t, "TASK-AAAAAAAA", task.ID)
	assert.Equal(t, "notes", body)
}
