package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rogersnm/errand/internal/model"
)

type opKind int

const (
	opPut opKind = iota
	opDelete
)

type op struct {
	kind   opKind
	rec    model.Record
	record model.Kind
	id     string
}

func (o op) String() string {
	if o.kind == opPut {
		return fmt.Sprintf("put %s %s", o.rec.RecordKind(), o.rec.RecordID())
	}
	return fmt.Sprintf("delete %s %s", o.record, o.id)
}

// SyncStats counts operations by outcome.
type SyncStats struct {
	Applied int
	Retried int
	Failed  int
}

type SyncOptions struct {
	Retries   int
	Backoff   time.Duration
	Logger    *slog.Logger
	OnFailure func(op string, err error)
}

// Syncer applies queued writes to a backend in order on one goroutine.
// Transient failures are retried with a fixed backoff; anything else is
// reported once through OnFailure and dropped. A dropped write is reconciled
// by the next full Load.
type Syncer struct {
	backend Backend
	opts    SyncOptions

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []op
	busy    bool
	closed  bool
	stats   SyncStats
	done    chan struct{}
	stopCtx context.Context
	stop    context.CancelFunc
}

func NewSyncer(ctx context.Context, b Backend, opts SyncOptions) *Syncer {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	stopCtx, stop := context.WithCancel(ctx)
	s := &Syncer{
		backend: b,
		opts:    opts,
		done:    make(chan struct{}),
		stopCtx: stopCtx,
		stop:    stop,
	}
	s.cond = sync.NewCond(&s.mu)
	context.AfterFunc(stopCtx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	go s.run()
	return s
}

// Put queues rec for writing. It never blocks on the backend.
func (s *Syncer) Put(rec model.Record) {
	s.enqueue(op{kind: opPut, rec: rec})
}

func (s *Syncer) Delete(kind model.Kind, id string) {
	s.enqueue(op{kind: opDelete, record: kind, id: id})
}

func (s *Syncer) enqueue(o op) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, o)
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}
	s.stats.Failed++
	s.mu.Unlock()
	s.drop(o)
}

// Flush waits until every queued write has been attempted, the syncer stops
// or ctx ends.
func (s *Syncer) Flush(ctx context.Context) error {
	wake := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer wake()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) > 0 || s.busy {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.stopCtx.Err() != nil {
			return nil
		}
		s.cond.Wait()
	}
	return nil
}

// Close flushes, stops the worker and closes the backend. Writes still queued
// once the worker stops are reported through OnFailure with ErrDropped.
func (s *Syncer) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()
	<-s.done

	s.mu.Lock()
	left := s.queue
	s.queue = nil
	s.stats.Failed += len(left)
	s.mu.Unlock()
	for _, o := range left {
		s.drop(o)
	}

	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("closing backend: %w", err)
	}
	return flushErr
}

func (s *Syncer) drop(o op) {
	s.opts.Logger.Warn("syncer closed, dropping write", "op", o.String())
	if s.opts.OnFailure != nil {
		s.opts.OnFailure(o.String(), ErrDropped)
	}
}

func (s *Syncer) Stats() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Syncer) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && s.stopCtx.Err() == nil {
			s.cond.Wait()
		}
		if s.stopCtx.Err() != nil {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.busy = true
		s.mu.Unlock()

		s.apply(next)

		s.mu.Lock()
		s.busy = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Syncer) apply(o op) {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.do(o)
		if err == nil {
			s.count(func(st *SyncStats) { st.Applied++ })
			return
		}
		if !IsTransient(err) || attempt >= s.opts.Retries {
			break
		}
		s.count(func(st *SyncStats) { st.Retried++ })
		s.opts.Logger.Debug("retrying write", "op", o.String(), "attempt", attempt+1, "error", err)
		select {
		case <-time.After(s.opts.Backoff):
		case <-s.stopCtx.Done():
			err = s.stopCtx.Err()
		}
		if s.stopCtx.Err() != nil {
			break
		}
	}
	s.count(func(st *SyncStats) { st.Failed++ })
	s.opts.Logger.Error("write failed", "op", o.String(), "error", err)
	if s.opts.OnFailure != nil {
		s.opts.OnFailure(o.String(), err)
	}
}

func (s *Syncer) do(o op) error {
	if o.kind == opPut {
		return s.backend.Put(s.stopCtx, o.rec)
	}
	return s.backend.Delete(s.stopCtx, o.record, o.id)
}

func (s *Syncer) count(f func(*SyncStats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}
