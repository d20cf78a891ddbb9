// Package persist connects the in-memory store to a durable backend. Loading
// goes through the store's bulk setters; incremental writes are queued and
// applied by a single background worker so store mutators never wait on I/O.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
)

// ErrTransient marks failures worth retrying, such as a locked database.
var ErrTransient = errors.New("transient")

// ErrDropped is reported for writes the Syncer discarded because it closed
// before applying them.
var ErrDropped = errors.New("syncer closed before the write was applied")

type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() []error {
	return []error{e.err, ErrTransient}
}

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Snapshot is every record a backend holds.
type Snapshot struct {
	Tasks    []*model.Task
	Projects []*model.Project
	Labels   []*model.Label
	Sections []*model.Section
}

type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, kind model.Kind, id string) error
	Close() error
}

// Load reads a snapshot from b and installs it in s through the bulk setters.
func Load(ctx context.Context, b Backend, s *store.Store) error {
	snap, err := b.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	s.SetProjects(snap.Projects)
	s.SetLabels(snap.Labels)
	s.SetSections(snap.Sections)
	s.SetItems(snap.Tasks)
	return nil
}
