package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu      sync.Mutex
	snap    *Snapshot
	loadErr error
	fail    []error
	puts    []string
	deletes []string
	closed  bool
}

func (m *memBackend) Load(context.Context) (*Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snap, nil
}

func (m *memBackend) next() error {
	if len(m.fail) == 0 {
		return nil
	}
	err := m.fail[0]
	m.fail = m.fail[1:]
	return err
}

func (m *memBackend) Put(_ context.Context, rec model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.next(); err != nil {
		return err
	}
	m.puts = append(m.puts, rec.RecordID())
	return nil
}

func (m *memBackend) Delete(_ context.Context, kind model.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.next(); err != nil {
		return err
	}
	m.deletes = append(m.deletes, string(kind)+":"+id)
	return nil
}

func (m *memBackend) Close() error {
	m.closed = true
	return nil
}

func (m *memBackend) written() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.puts...), append([]string(nil), m.deletes...)
}

func TestLoadInstallsSnapshot(t *testing.T) {
	b := &memBackend{snap: &Snapshot{
		Tasks:    []*model.Task{{ID: "1", ProjectID: "P1"}},
		Projects: []*model.Project{{ID: "P1", Name: "Home"}},
		Labels:   []*model.Label{{ID: "L1", Name: "quick"}},
		Sections: []*model.Section{{ID: "S1", Name: "Now", ProjectID: "P1"}},
	}}
	s := store.New()

	require.NoError(t, Load(context.Background(), b, s))

	assert.Len(t, s.ItemsByProject("P1"), 1)
	assert.Len(t, s.Projects(), 1)
	assert.Len(t, s.Labels(), 1)
	assert.Len(t, s.Sections(), 1)
	assert.Equal(t, uint64(4), s.Version())
}

func TestLoadErrorLeavesStoreUntouched(t *testing.T) {
	b := &memBackend{loadErr: errors.New("disk gone")}
	s := store.New()

	err := Load(context.Background(), b, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, uint64(0), s.Version())
}

func TestTransient(t *testing.T) {
	base := errors.New("database is locked")
	err := Transient(base)

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "database is locked", err.Error())
	assert.False(t, IsTransient(base))
	assert.Nil(t, Transient(nil))
}

func TestSyncerAppliesInOrder(t *testing.T) {
	b := &memBackend{}
	s := NewSyncer(context.Background(), b, SyncOptions{})

	s.Put(&model.Task{ID: "1"})
	s.Put(&model.Project{ID: "P1"})
	s.Delete(model.KindTask, "1")
	require.NoError(t, s.Flush(context.Background()))

	puts, deletes := b.written()
	assert.Equal(t, []string{"1", "P1"}, puts)
	assert.Equal(t, []string{"task:1"}, deletes)
	assert.Equal(t, SyncStats{Applied: 3}, s.Stats())
	require.NoError(t, s.Close(context.Background()))
	assert.True(t, b.closed)
}

func TestSyncerRetriesTransient(t *testing.T) {
	b := &memBackend{fail: []error{Transient(errors.New("busy")), Transient(errors.New("busy"))}}
	s := NewSyncer(context.Background(), b, SyncOptions{Retries: 3, Backoff: time.Millisecond})
	defer s.Close(context.Background())

	s.Put(&model.Task{ID: "1"})
	require.NoError(t, s.Flush(context.Background()))

	puts, _ := b.written()
	assert.Equal(t, []string{"1"}, puts)
	assert.Equal(t, SyncStats{Applied: 1, Retried: 2}, s.Stats())
}

func TestSyncerGivesUpAfterRetries(t *testing.T) {
	busy := Transient(errors.New("busy"))
	b := &memBackend{fail: []error{busy, busy, busy}}
	var failures []string
	s := NewSyncer(context.Background(), b, SyncOptions{
		Retries:   2,
		Backoff:   time.Millisecond,
		OnFailure: func(op string, err error) { failures = append(failures, op) },
	})
	defer s.Close(context.Background())

	s.Put(&model.Task{ID: "1"})
	s.Put(&model.Task{ID: "2"})
	require.NoError(t, s.Flush(context.Background()))

	puts, _ := b.written()
	assert.Equal(t, []string{"2"}, puts)
	assert.Equal(t, []string{"put task 1"}, failures)
	assert.Equal(t, SyncStats{Applied: 1, Retried: 2, Failed: 1}, s.Stats())
}

func TestSyncerNeverRetriesLogicErrors(t *testing.T) {
	b := &memBackend{fail: []error{errors.New("constraint violation")}}
	s := NewSyncer(context.Background(), b, SyncOptions{Retries: 5, Backoff: time.Millisecond})
	defer s.Close(context.Background())

	s.Delete(model.KindLabel, "L1")
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, SyncStats{Failed: 1}, s.Stats())
}

func TestSyncerDropsWritesAfterClose(t *testing.T) {
	b := &memBackend{}
	var failures []error
	s := NewSyncer(context.Background(), b, SyncOptions{
		OnFailure: func(op string, err error) { failures = append(failures, err) },
	})
	require.NoError(t, s.Close(context.Background()))

	s.Put(&model.Task{ID: "late"})

	puts, _ := b.written()
	assert.Empty(t, puts)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrDropped)
	assert.Equal(t, 1, s.Stats().Failed)
}

// stuckBackend blocks every write until its context ends.
type stuckBackend struct {
	memBackend
	started chan struct{}
}

func (b *stuckBackend) Put(ctx context.Context, rec model.Record) error {
	b.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func TestSyncerFlushHonoursContext(t *testing.T) {
	b := &stuckBackend{started: make(chan struct{}, 1)}
	var mu sync.Mutex
	var ops []string
	var errs []error
	s := NewSyncer(context.Background(), b, SyncOptions{
		OnFailure: func(op string, err error) {
			mu.Lock()
			defer mu.Unlock()
			ops = append(ops, op)
			errs = append(errs, err)
		},
	})

	s.Put(&model.Task{ID: "1"})
	s.Put(&model.Task{ID: "2"})
	s.Put(&model.Task{ID: "3"})
	<-b.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	closeCtx, cancelClose := context.WithCancel(context.Background())
	cancelClose()
	assert.ErrorIs(t, s.Close(closeCtx), context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"put task 1", "put task 2", "put task 3"}, ops)
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.ErrorIs(t, errs[1], ErrDropped)
	assert.ErrorIs(t, errs[2], ErrDropped)
	assert.Equal(t, SyncStats{Failed: 3}, s.Stats())
	assert.True(t, b.closed)
}
