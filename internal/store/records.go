package store

import (
	"slices"
	"time"

	"github.com/rogersnm/errand/internal/model"
)

// collection is an ordered, unindexed list with linear lookup by id. Project,
// label and section counts stay small next to tasks.
type collection[T model.Record] struct {
	items []T
}

func (c *collection[T]) find(id string) int {
	return slices.IndexFunc(c.items, func(r T) bool { return r.RecordID() == id })
}

func (c *collection[T]) set(items []T) {
	c.items = slices.Clone(items)
}

func (c *collection[T]) upsert(r T) {
	if i := c.find(r.RecordID()); i >= 0 {
		c.items[i] = r
		return
	}
	c.items = append(c.items, r)
}

func (c *collection[T]) remove(id string) {
	if i := c.find(id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
}

func (c *collection[T]) get(id string) (T, bool) {
	if i := c.find(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) all() []T {
	return slices.Clone(c.items)
}

func (s *Store) setRecords(kind model.Kind, n int, replace func()) {
	start := time.Now()
	replace()
	s.observer.Rebuilt(kind, n, time.Since(start))
	s.bump("set_"+string(kind)+"s", "")
}

// --- Projects ---

func (s *Store) SetProjects(projects []*model.Project) {
	s.setRecords(model.KindProject, len(projects), func() { s.projects.set(projects) })
}

// AddProject publishes p, assigning an id when blank.
func (s *Store) AddProject(p *model.Project) *model.Project {
	if p.ID == "" {
		c := *p
		c.ID = s.newID(model.KindProject)
		p = &c
	}
	s.projects.upsert(p)
	s.bump("add_project", p.ID)
	return p
}

func (s *Store) UpdateProject(p *model.Project) *model.Project {
	if p.ID == "" {
		return s.AddProject(p)
	}
	s.projects.upsert(p)
	s.bump("update_project", p.ID)
	return p
}

func (s *Store) RemoveProject(id string) {
	s.projects.remove(id)
	s.bump("remove_project", id)
}

func (s *Store) Projects() []*model.Project { return s.projects.all() }

func (s *Store) Project(id string) (*model.Project, bool) { return s.projects.get(id) }

// --- Labels ---

func (s *Store) SetLabels(labels []*model.Label) {
	s.setRecords(model.KindLabel, len(labels), func() { s.labels.set(labels) })
}

func (s *Store) AddLabel(l *model.Label) *model.Label {
	if l.ID == "" {
		c := *l
		c.ID = s.newID(model.KindLabel)
		l = &c
	}
	s.labels.upsert(l)
	s.bump("add_label", l.ID)
	return l
}

func (s *Store) UpdateLabel(l *model.Label) *model.Label {
	if l.ID == "" {
		return s.AddLabel(l)
	}
	s.labels.upsert(l)
	s.bump("update_label", l.ID)
	return l
}

func (s *Store) RemoveLabel(id string) {
	s.labels.remove(id)
	s.bump("remove_label", id)
}

func (s *Store) Labels() []*model.Label { return s.labels.all() }

func (s *Store) Label(id string) (*model.Label, bool) { return s.labels.get(id) }

// LabelByName finds a label by exact name.
func (s *Store) LabelByName(name string) (*model.Label, bool) {
	for _, l := range s.labels.items {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// --- Sections ---

func (s *Store) SetSections(sections []*model.Section) {
	s.setRecords(model.KindSection, len(sections), func() { s.sections.set(sections) })
}

func (s *Store) AddSection(sec *model.Section) *model.Section {
	if sec.ID == "" {
		c := *sec
		c.ID = s.newID(model.KindSection)
		sec = &c
	}
	s.sections.upsert(sec)
	s.bump("add_section", sec.ID)
	return sec
}

func (s *Store) UpdateSection(sec *model.Section) *model.Section {
	if sec.ID == "" {
		return s.AddSection(sec)
	}
	s.sections.upsert(sec)
	s.bump("update_section", sec.ID)
	return sec
}

func (s *Store) RemoveSection(id string) {
	s.sections.remove(id)
	s.bump("remove_section", id)
}

func (s *Store) Sections() []*model.Section { return s.sections.all() }

func (s *Store) Section(id string) (*model.Section, bool) { return s.sections.get(id) }

// SectionsByProject joins sections against projectID with a linear scan.
func (s *Store) SectionsByProject(projectID string) []*model.Section {
	var out []*model.Section
	for _, sec := range s.sections.items {
		if sec.ProjectID == projectID {
			out = append(out, sec)
		}
	}
	return out
}
