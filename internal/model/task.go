package model

import (
	"fmt"
	"slices"
	"time"
)

// Priority follows the P1 (most urgent) to P4 scale. Zero means unset.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityP1
	PriorityP2
	PriorityP3
	PriorityP4
)

func FormatPriority(p Priority) string {
	if p == PriorityNone {
		return "-"
	}
	return fmt.Sprintf("P%d", int(p))
}

func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "-":
		return PriorityNone, nil
	case "P1", "p1", "1":
		return PriorityP1, nil
	case "P2", "p2", "2":
		return PriorityP2, nil
	case "P3", "p3", "3":
		return PriorityP3, nil
	case "P4", "p4", "4":
		return PriorityP4, nil
	}
	return PriorityNone, fmt.Errorf("invalid priority %q: must be one of P1, P2, P3, P4", s)
}

// Task is published once and then shared read-only. Every change goes
// through Clone or one of the With helpers and yields a new pointer.
type Task struct {
	ID          string     `yaml:"id" json:"id" validate:"required"`
	Content     string     `yaml:"content" json:"content" validate:"required,max=1024"`
	Description string     `yaml:"-" json:"description,omitempty"`
	Checked     bool       `yaml:"checked" json:"checked"`
	Pinned      bool       `yaml:"pinned,omitempty" json:"pinned"`
	ProjectID   string     `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	SectionID   string     `yaml:"section_id,omitempty" json:"section_id,omitempty"`
	ParentID    string     `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Due         *Due       `yaml:"due,omitempty" json:"due,omitempty"`
	Priority    Priority   `yaml:"priority,omitempty" json:"priority,omitempty" validate:"min=0,max=4"`
	Labels      []string   `yaml:"labels,omitempty" json:"labels,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

func (t *Task) RecordID() string { return t.ID }
func (t *Task) RecordKind() Kind { return KindTask }

func (t *Task) Validate() error {
	if err := validateStruct(KindTask, t); err != nil {
		return err
	}
	if t.ParentID != "" && t.ParentID == t.ID {
		return fmt.Errorf("task cannot be its own parent")
	}
	if t.SectionID != "" && t.ProjectID == "" {
		return fmt.Errorf("task with section %s must belong to a project", t.SectionID)
	}
	seen := make(map[string]bool)
	for _, l := range t.Labels {
		if seen[l] {
			return fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
	return nil
}

// Clone returns a deep copy that is safe to modify before publishing.
func (t *Task) Clone() *Task {
	c := *t
	c.Labels = slices.Clone(t.Labels)
	if t.Due != nil {
		d := *t.Due
		c.Due = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func (t *Task) WithChecked(checked bool, at time.Time) *Task {
	c := t.Clone()
	c.Checked = checked
	c.UpdatedAt = at
	if checked {
		c.CompletedAt = &at
	} else {
		c.CompletedAt = nil
	}
	return c
}

func (t *Task) WithPinned(pinned bool, at time.Time) *Task {
	c := t.Clone()
	c.Pinned = pinned
	c.UpdatedAt = at
	return c
}

// WithProject moves the task to projectID and sectionID. An empty sectionID
// leaves the task outside any section.
func (t *Task) WithProject(projectID, sectionID string, at time.Time) *Task {
	c := t.Clone()
	c.ProjectID = projectID
	c.SectionID = sectionID
	c.UpdatedAt = at
	return c
}

func (t *Task) WithDue(due *Due, at time.Time) *Task {
	c := t.Clone()
	c.Due = due
	c.UpdatedAt = at
	return c
}

// Complete returns t marked done. A recurring task with another occurrence
// left stays open and moves to that occurrence instead; rolled reports which.
func (t *Task) Complete(at time.Time) (done *Task, rolled bool) {
	if next, ok := t.Due.Next(); ok {
		return t.WithDue(next, at), true
	}
	return t.WithChecked(true, at), false
}

func (t *Task) HasLabel(labelID string) bool {
	return slices.Contains(t.Labels, labelID)
}

func (t *Task) HasDue() bool {
	_, ok := t.Due.Resolve()
	return ok
}

func (t *Task) IsToday(now time.Time) bool   { return t.Due.IsToday(now) }
func (t *Task) IsOverdue(now time.Time) bool { return t.Due.IsOverdue(now) }
