// Package index maintains the derived task structures the store serves its
// filtered views from: project and section buckets plus the completed and
// pinned id sets. Every operation costs the size of the change, not the
// size of the collection.
package index

import (
	"fmt"
	"slices"

	"github.com/rogersnm/errand/internal/model"
)

type set map[string]struct{}

// Index is not safe for concurrent use. The store that owns it is the single
// writer.
type Index struct {
	byProject map[string][]*model.Task
	bySection map[string][]*model.Task
	completed set
	pinned    set
}

// Stats summarises the current shape of the index.
type Stats struct {
	ProjectBuckets int
	SectionBuckets int
	Completed      int
	Pinned         int
}

func New() *Index {
	return &Index{
		byProject: make(map[string][]*model.Task),
		bySection: make(map[string][]*model.Task),
		completed: make(set),
		pinned:    make(set),
	}
}

// Rebuild clears every structure and re-adds tasks in order.
func (ix *Index) Rebuild(tasks []*model.Task) {
	clear(ix.byProject)
	clear(ix.bySection)
	clear(ix.completed)
	clear(ix.pinned)
	for _, t := range tasks {
		ix.Add(t)
	}
}

// Add indexes t. Callers must not add the same id twice without removing it.
func (ix *Index) Add(t *model.Task) {
	insert(ix.byProject, t.ProjectID, t)
	insert(ix.bySection, t.SectionID, t)
	if t.Checked {
		ix.completed[t.ID] = struct{}{}
	}
	if t.Pinned {
		ix.pinned[t.ID] = struct{}{}
	}
}

// Remove drops t from every structure it could appear in. It is a no-op for
// a task that was never indexed.
func (ix *Index) Remove(t *model.Task) {
	drop(ix.byProject, t.ProjectID, t.ID)
	drop(ix.bySection, t.SectionID, t.ID)
	delete(ix.completed, t.ID)
	delete(ix.pinned, t.ID)
}

// Update moves the index from old to next, which must share an id. Buckets
// whose key is unchanged get the new pointer in the same position; sets are
// only touched when the flag flipped.
func (ix *Index) Update(old, next *model.Task) {
	regroup(ix.byProject, old.ProjectID, next.ProjectID, next)
	regroup(ix.bySection, old.SectionID, next.SectionID, next)
	if old.Checked != next.Checked {
		toggle(ix.completed, next.ID, next.Checked)
	}
	if old.Pinned != next.Pinned {
		toggle(ix.pinned, next.ID, next.Pinned)
	}
}

// Project returns a copy of the bucket for projectID in insertion order.
func (ix *Index) Project(projectID string) []*model.Task {
	return slices.Clone(ix.byProject[projectID])
}

// Section returns a copy of the bucket for sectionID in insertion order.
func (ix *Index) Section(sectionID string) []*model.Task {
	return slices.Clone(ix.bySection[sectionID])
}

func (ix *Index) IsCompleted(id string) bool {
	_, ok := ix.completed[id]
	return ok
}

func (ix *Index) IsPinned(id string) bool {
	_, ok := ix.pinned[id]
	return ok
}

func (ix *Index) Stats() Stats {
	return Stats{
		ProjectBuckets: len(ix.byProject),
		SectionBuckets: len(ix.bySection),
		Completed:      len(ix.completed),
		Pinned:         len(ix.pinned),
	}
}

// Verify checks every structure against tasks, the authoritative collection,
// and returns the first divergence found.
func (ix *Index) Verify(tasks []*model.Task) error {
	byID := make(map[string]*model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	if err := verifyBuckets("project", ix.byProject, byID, func(t *model.Task) string { return t.ProjectID }); err != nil {
		return err
	}
	if err := verifyBuckets("section", ix.bySection, byID, func(t *model.Task) string { return t.SectionID }); err != nil {
		return err
	}
	if err := verifySet("completed", ix.completed, byID, func(t *model.Task) bool { return t.Checked }); err != nil {
		return err
	}
	return verifySet("pinned", ix.pinned, byID, func(t *model.Task) bool { return t.Pinned })
}

func insert(buckets map[string][]*model.Task, key string, t *model.Task) {
	if key == "" {
		return
	}
	buckets[key] = append(buckets[key], t)
}

func drop(buckets map[string][]*model.Task, key, id string) {
	if key == "" {
		return
	}
	bucket, ok := buckets[key]
	if !ok {
		return
	}
	i := slices.IndexFunc(bucket, func(t *model.Task) bool { return t.ID == id })
	if i < 0 {
		return
	}
	bucket = slices.Delete(bucket, i, i+1)
	if len(bucket) == 0 {
		delete(buckets, key)
		return
	}
	buckets[key] = bucket
}

func regroup(buckets map[string][]*model.Task, oldKey, newKey string, next *model.Task) {
	if oldKey != newKey {
		drop(buckets, oldKey, next.ID)
		insert(buckets, newKey, next)
		return
	}
	if newKey == "" {
		return
	}
	bucket := buckets[newKey]
	i := slices.IndexFunc(bucket, func(t *model.Task) bool { return t.ID == next.ID })
	if i < 0 {
		// The old value was never indexed here; index the new one.
		buckets[newKey] = append(bucket, next)
		return
	}
	bucket[i] = next
}

func toggle(s set, id string, on bool) {
	if on {
		s[id] = struct{}{}
	} else {
		delete(s, id)
	}
}

func verifyBuckets(name string, buckets map[string][]*model.Task, byID map[string]*model.Task, key func(*model.Task) string) error {
	indexed := 0
	for k, bucket := range buckets {
		if k == "" {
			return fmt.Errorf("%s index has a bucket for the empty id", name)
		}
		if len(bucket) == 0 {
			return fmt.Errorf("%s index has an empty bucket for %s", name, k)
		}
		for _, t := range bucket {
			cur, ok := byID[t.ID]
			if !ok {
				return fmt.Errorf("%s bucket %s holds unknown task %s", name, k, t.ID)
			}
			if cur != t {
				return fmt.Errorf("%s bucket %s holds a stale reference to task %s", name, k, t.ID)
			}
			if key(cur) != k {
				return fmt.Errorf("%s bucket %s holds task %s which belongs to %q", name, k, t.ID, key(cur))
			}
		}
		indexed += len(bucket)
	}
	want := 0
	for _, t := range byID {
		if key(t) != "" {
			want++
		}
	}
	if indexed != want {
		return fmt.Errorf("%s index holds %d entries, collection has %d tasks with a %s", name, indexed, want, name)
	}
	return nil
}

func verifySet(name string, s set, byID map[string]*model.Task, flag func(*model.Task) bool) error {
	for id := range s {
		t, ok := byID[id]
		if !ok {
			return fmt.Errorf("%s set holds unknown task %s", name, id)
		}
		if !flag(t) {
			return fmt.Errorf("%s set holds task %s whose flag is false", name, id)
		}
	}
	for id, t := range byID {
		if _, ok := s[id]; flag(t) && !ok {
			return fmt.Errorf("task %s is missing from the %s set", id, name)
		}
	}
	return nil
}
