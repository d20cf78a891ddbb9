package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/rogersnm/errand/internal/model"
)

// SetItems replaces the whole task collection and rebuilds the indexes. It
// is the reload path for a backing store, not for single edits. A repeated
// id keeps the first position and the last value.
func (s *Store) SetItems(tasks []*model.Task) {
	start := time.Now()
	s.items = make([]*model.Task, 0, len(tasks))
	clear(s.pos)
	for _, t := range tasks {
		if i, ok := s.pos[t.ID]; ok {
			s.items[i] = t
			continue
		}
		s.pos[t.ID] = len(s.items)
		s.items = append(s.items, t)
	}
	s.index.Rebuild(s.items)
	s.observer.Rebuilt(model.KindTask, len(s.items), time.Since(start))
	s.bump("set_items", "")
}

// AddItem publishes t, assigning an id when blank, and returns the published
// pointer. Adding an id that already exists replaces that task.
func (s *Store) AddItem(t *model.Task) *model.Task {
	if t.ID == "" {
		t = t.Clone()
		t.ID = s.newID(model.KindTask)
	}
	if _, ok := s.pos[t.ID]; ok {
		s.replace(t)
	} else {
		s.insert(t)
	}
	s.bump("add_item", t.ID)
	return t
}

// UpdateItem publishes t in place of the task with the same id. A missing id
// is inserted.
func (s *Store) UpdateItem(t *model.Task) *model.Task {
	if t.ID == "" {
		return s.AddItem(t)
	}
	if _, ok := s.pos[t.ID]; ok {
		s.replace(t)
	} else {
		s.insert(t)
	}
	s.bump("update_item", t.ID)
	return t
}

// RemoveItem drops the task with id. A missing id changes nothing but still
// advances the version.
func (s *Store) RemoveItem(id string) {
	if i, ok := s.pos[id]; ok {
		old := s.items[i]
		s.items = slices.Delete(s.items, i, i+1)
		delete(s.pos, id)
		for j := i; j < len(s.items); j++ {
			s.pos[s.items[j].ID] = j
		}
		s.index.Remove(old)
	}
	s.bump("remove_item", id)
}

// ApplyChanges runs added, then updated, then removed through the single
// record paths. The version advances once per record; listeners hear about
// the batch once, with the final version.
func (s *Store) ApplyChanges(added, updated []*model.Task, removed []string) {
	if len(added)+len(updated)+len(removed) == 0 {
		return
	}
	s.batching = true
	for _, t := range added {
		s.AddItem(t)
	}
	for _, t := range updated {
		s.UpdateItem(t)
	}
	for _, id := range removed {
		s.RemoveItem(id)
	}
	s.batching = false
	s.notify()
}

func (s *Store) insert(t *model.Task) {
	s.pos[t.ID] = len(s.items)
	s.items = append(s.items, t)
	s.index.Add(t)
}

func (s *Store) replace(t *model.Task) {
	i := s.pos[t.ID]
	old := s.items[i]
	s.items[i] = t
	s.index.Update(old, t)
}

// Item returns the published task with id.
func (s *Store) Item(id string) (*model.Task, bool) {
	i, ok := s.pos[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

// Items returns every task in collection order.
func (s *Store) Items() []*model.Task {
	return slices.Clone(s.items)
}

func (s *Store) Len() int {
	return len(s.items)
}

// CheckConsistency verifies the position map and every index against the
// task collection.
func (s *Store) CheckConsistency() error {
	if len(s.pos) != len(s.items) {
		return fmt.Errorf("position map holds %d ids for %d tasks", len(s.pos), len(s.items))
	}
	for i, t := range s.items {
		if s.pos[t.ID] != i {
			return fmt.Errorf("task %s is at %d but mapped to %d", t.ID, i, s.pos[t.ID])
		}
	}
	return s.index.Verify(s.items)
}
