package store

import (
	"fmt"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/tree"
)

// CheckTask reports the first reason t cannot be published: a field that
// fails validation, a project, section, label or parent the store does not
// hold, a section from another project, or a parent chain that would loop
// back to t.
func (s *Store) CheckTask(t *model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ProjectID != "" {
		if _, ok := s.projects.get(t.ProjectID); !ok {
			return fmt.Errorf("project %s not found", t.ProjectID)
		}
	}
	if t.SectionID != "" {
		sec, ok := s.sections.get(t.SectionID)
		if !ok {
			return fmt.Errorf("section %s not found", t.SectionID)
		}
		if sec.ProjectID != t.ProjectID {
			return fmt.Errorf("section %s belongs to project %s", sec.ID, sec.ProjectID)
		}
	}
	for _, l := range t.Labels {
		if _, ok := s.labels.get(l); !ok {
			return fmt.Errorf("label %s not found", l)
		}
	}
	if t.ParentID != "" {
		return tree.Build(s.items).CheckParent(t.ID, t.ParentID)
	}
	return nil
}

// Descendants returns the ids of every subtask below id, depth first.
func (s *Store) Descendants(id string) []string {
	return tree.Build(s.items).Descendants(id)
}
