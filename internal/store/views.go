package store

import (
	"fmt"
	"slices"

	"github.com/rogersnm/errand/internal/model"
)

// View names a fixed, parameterless filtered list.
type View string

const (
	ViewInbox     View = "inbox"
	ViewToday     View = "today"
	ViewScheduled View = "scheduled"
	ViewCompleted View = "completed"
	ViewPinned    View = "pinned"
	ViewOverdue   View = "overdue"
	ViewNoSection View = "no-section"
)

var Views = []View{ViewInbox, ViewToday, ViewScheduled, ViewPinned, ViewOverdue, ViewCompleted, ViewNoSection}

func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// cachedView is what the query cache holds. day is set only for views whose
// predicate depends on the calendar date.
type cachedView struct {
	day   string
	tasks []*model.Task
}

// View returns the named list. Overdue is never cached because it moves with
// the wall clock; today is cached per calendar day.
func (s *Store) View(v View) []*model.Task {
	switch v {
	case ViewInbox:
		return s.Inbox()
	case ViewToday:
		return s.Today()
	case ViewScheduled:
		return s.Scheduled()
	case ViewCompleted:
		return s.Completed()
	case ViewPinned:
		return s.Pinned()
	case ViewOverdue:
		return s.Overdue()
	case ViewNoSection:
		return s.NoSection()
	}
	return nil
}

// Inbox lists open tasks outside any project.
func (s *Store) Inbox() []*model.Task {
	return s.cached(ViewInbox, "", func(t *model.Task) bool {
		return !t.Checked && t.ProjectID == ""
	})
}

// Today lists open tasks due on the current calendar day.
func (s *Store) Today() []*model.Task {
	now := s.now()
	return s.cached(ViewToday, now.Format("2006-01-02"), func(t *model.Task) bool {
		return !t.Checked && t.IsToday(now)
	})
}

// Scheduled lists open tasks with any due date.
func (s *Store) Scheduled() []*model.Task {
	return s.cached(ViewScheduled, "", func(t *model.Task) bool {
		return !t.Checked && t.HasDue()
	})
}

func (s *Store) Completed() []*model.Task {
	return s.cached(ViewCompleted, "", func(t *model.Task) bool {
		return t.Checked
	})
}

// Pinned lists open pinned tasks. A checked task keeps its pinned flag but
// drops out of this view.
func (s *Store) Pinned() []*model.Task {
	return s.cached(ViewPinned, "", func(t *model.Task) bool {
		return !t.Checked && t.Pinned
	})
}

// Overdue lists open tasks whose due instant is already past.
func (s *Store) Overdue() []*model.Task {
	now := s.now()
	return s.filter(func(t *model.Task) bool {
		return !t.Checked && t.IsOverdue(now)
	})
}

// NoSection lists open tasks outside any section. It scans the collection
// because it is the complement of every section bucket, not a bucket itself.
func (s *Store) NoSection() []*model.Task {
	return s.cached(ViewNoSection, "", func(t *model.Task) bool {
		return !t.Checked && t.SectionID == ""
	})
}

// ItemsByProject reads the project bucket directly.
func (s *Store) ItemsByProject(projectID string) []*model.Task {
	return s.index.Project(projectID)
}

// ItemsBySection reads the section bucket directly.
func (s *Store) ItemsBySection(sectionID string) []*model.Task {
	return s.index.Section(sectionID)
}

// ItemsByLabel scans for tasks carrying labelID.
func (s *Store) ItemsByLabel(labelID string) []*model.Task {
	return s.filter(func(t *model.Task) bool { return t.HasLabel(labelID) })
}

// SubItems scans for direct children of parentID.
func (s *Store) SubItems(parentID string) []*model.Task {
	return s.filter(func(t *model.Task) bool { return parentID != "" && t.ParentID == parentID })
}

func (s *Store) filter(keep func(*model.Task) bool) []*model.Task {
	out := make([]*model.Task, 0)
	for _, t := range s.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) cached(v View, day string, keep func(*model.Task) bool) []*model.Task {
	name := string(v)
	if hit, ok := s.views.Get(name, s.version); ok && hit.day == day {
		s.observer.CacheHit(name, s.version)
		return slices.Clone(hit.tasks)
	}
	s.observer.CacheMiss(name, s.version)
	tasks := s.filter(keep)
	s.views.Set(name, s.version, cachedView{day: day, tasks: tasks})
	return slices.Clone(tasks)
}
