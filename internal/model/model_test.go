package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_Validate_Valid(t *testing.T) {
	p := &Project{ID: "PROJ-ABCDE", Name: "Test"}
	assert.NoError(t, p.Validate())
}

func TestProject_Validate_MissingName(t *testing.T) {
	p := &Project{ID: "PROJ-ABCDE"}
	err := p.Validate()
	require.Error(t, err)
	assert.Equal(t, "project name is required", err.Error())
}

func TestProject_Validate_MissingID(t *testing.T) {
	p := &Project{Name: "Test"}
	assert.Error(t, p.Validate())
}

func TestSection_Validate_RequiresProject(t *testing.T) {
	s := &Section{ID: "SECT-ABCDE", Name: "Backlog"}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}

func TestLabel_Validate(t *testing.T) {
	assert.NoError(t, (&Label{ID: "LABEL-ABCDE", Name: "home"}).Validate())
	assert.Error(t, (&Label{ID: "LABEL-ABCDE"}).Validate())
}

func TestTask_Validate_Valid(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "Write tests", ProjectID: "PROJ-ABCDE", Priority: PriorityP2}
	assert.NoError(t, task.Validate())
}

func TestTask_Validate_MissingContent(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE"}
	err := task.Validate()
	require.Error(t, err)
	assert.Equal(t, "task content is required", err.Error())
}

func TestTask_Validate_PriorityOutOfRange(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "x", Priority: 7}
	assert.Error(t, task.Validate())
}

func TestTask_Validate_SelfParent(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "x", ParentID: "TASK-ABCDE"}
	assert.Error(t, task.Validate())
}

func TestTask_Validate_SectionWithoutProject(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "x", SectionID: "SECT-ABCDE"}
	assert.Error(t, task.Validate())
}

func TestTask_Validate_DuplicateLabels(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "x", Labels: []string{"LABEL-22222", "LABEL-22222"}}
	assert.Error(t, task.Validate())
}

func TestTask_Validate_BadRecurrence(t *testing.T) {
	task := &Task{ID: "TASK-ABCDE", Content: "x", Due: &Due{Date: time.Now(), Recurring: true, Recurrence: "fortnightly"}}
	assert.Error(t, task.Validate())
}

func TestValidate_Dispatch(t *testing.T) {
	assert.NoError(t, Validate(&Label{ID: "LABEL-ABCDE", Name: "x"}))
	assert.Error(t, Validate(&Section{ID: "SECT-ABCDE"}))
}

func TestTask_WithHelpers_DoNotMutate(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := &Task{ID: "TASK-ABCDE", Content: "x", Labels: []string{"LABEL-22222"}}

	checked := orig.WithChecked(true, at)
	assert.False(t, orig.Checked)
	assert.Nil(t, orig.CompletedAt)
	assert.True(t, checked.Checked)
	require.NotNil(t, checked.CompletedAt)
	assert.Equal(t, at, *checked.CompletedAt)

	unchecked := checked.WithChecked(false, at)
	assert.Nil(t, unchecked.CompletedAt)

	moved := orig.WithProject("PROJ-ABCDE", "SECT-ABCDE", at)
	assert.Empty(t, orig.ProjectID)
	assert.Equal(t, "SECT-ABCDE", moved.SectionID)

	moved.Labels[0] = "LABEL-33333"
	assert.Equal(t, "LABEL-22222", orig.Labels[0])
}

func TestDue_IsToday(t *testing.T) {
	loc := time.FixedZone("minus5", -5*3600)
	now := time.Date(2026, 3, 10, 22, 0, 0, 0, loc)

	allDay := &Due{Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	assert.True(t, allDay.IsToday(now))

	timed := &Due{Date: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC), HasTime: true}
	assert.True(t, timed.IsToday(now), "02:00 UTC is 21:00 the previous day at -5")

	var none *Due
	assert.False(t, none.IsToday(now))
}

func TestDue_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Due{Date: now.Add(-time.Minute), HasTime: true}).IsOverdue(now))
	assert.False(t, (&Due{Date: now.Add(time.Minute), HasTime: true}).IsOverdue(now))
	assert.False(t, (&Due{Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}).IsOverdue(now), "all-day today is not overdue")
	assert.True(t, (&Due{Date: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)}).IsOverdue(now))
}

func TestDue_Next(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	d := &Due{Date: start, Recurring: true, Recurrence: RecurrenceWeekly, Interval: 2}
	next, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, start.AddDate(0, 0, 14), next.Date)
	assert.Equal(t, start, d.Date)

	_, ok = (&Due{Date: start}).Next()
	assert.False(t, ok)

	last := &Due{Date: start, Recurring: true, Recurrence: RecurrenceDaily, End: RecurrenceEnd{Count: 1}}
	_, ok = last.Next()
	assert.False(t, ok)

	until := start.AddDate(0, 0, 1)
	bounded := &Due{Date: start, Recurring: true, Recurrence: RecurrenceDaily, Interval: 2, End: RecurrenceEnd{Until: &until}}
	_, ok = bounded.Next()
	assert.False(t, ok)
}

func TestTask_Complete(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	plain := &Task{ID: "T1", Content: "x"}
	done, rolled := plain.Complete(at)
	assert.False(t, rolled)
	assert.True(t, done.Checked)
	assert.False(t, plain.Checked)

	weekly := &Task{ID: "T2", Content: "x", Due: &Due{Date: day, Recurring: true, Recurrence: RecurrenceWeekly, End: RecurrenceEnd{Count: 2}}}
	next, rolled := weekly.Complete(at)
	assert.True(t, rolled)
	assert.False(t, next.Checked)
	assert.Equal(t, day.AddDate(0, 0, 7), next.Due.Date)
	assert.Equal(t, 1, next.Due.End.Count)
	assert.Equal(t, day, weekly.Due.Date)

	last, rolled := next.Complete(at)
	assert.False(t, rolled)
	assert.True(t, last.Checked)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("P1")
	require.NoError(t, err)
	assert.Equal(t, PriorityP1, p)
	assert.Equal(t, "P1", FormatPriority(p))
	assert.Equal(t, "-", FormatPriority(PriorityNone))

	_, err = ParsePriority("P9")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("section")
	require.NoError(t, err)
	assert.Equal(t, KindSection, k)

	_, err = ParseKind("epic")
	assert.Error(t, err)
}
