package store

import (
	"log/slog"
	"time"

	"github.com/rogersnm/errand/internal/model"
)

// Observer receives instrumentation from the store. Implementations must not
// call back into the store.
type Observer interface {
	Rebuilt(kind model.Kind, n int, took time.Duration)
	Mutated(op, id string, version uint64)
	CacheHit(view string, version uint64)
	CacheMiss(view string, version uint64)
}

type NopObserver struct{}

func (NopObserver) Rebuilt(model.Kind, int, time.Duration) {}
func (NopObserver) Mutated(string, string, uint64)         {}
func (NopObserver) CacheHit(string, uint64)                {}
func (NopObserver) CacheMiss(string, uint64)               {}

type logObserver struct {
	log *slog.Logger
}

// LogObserver reports every event at debug level.
func LogObserver(l *slog.Logger) Observer {
	return logObserver{log: l}
}

func (o logObserver) Rebuilt(kind model.Kind, n int, took time.Duration) {
	o.log.Debug("store rebuilt", "kind", kind, "records", n, "took", took)
}

func (o logObserver) Mutated(op, id string, version uint64) {
	o.log.Debug("store mutated", "op", op, "id", id, "version", version)
}

func (o logObserver) CacheHit(view string, version uint64) {
	o.log.Debug("view cache hit", "view", view, "version", version)
}

func (o logObserver) CacheMiss(view string, version uint64) {
	o.log.Debug("view cache miss", "view", view, "version", version)
}

// Counters tallies observer events. It is handy for tests and the doctor
// command.
type Counters struct {
	Rebuilds  int
	Mutations int
	Hits      int
	Misses    int
}

func (c *Counters) Rebuilt(model.Kind, int, time.Duration) { c.Rebuilds++ }
func (c *Counters) Mutated(string, string, uint64)         { c.Mutations++ }
func (c *Counters) CacheHit(string, uint64)                { c.Hits++ }
func (c *Counters) CacheMiss(string, uint64)               { c.Misses++ }

// Tee fans events out to every observer in order.
func Tee(obs ...Observer) Observer {
	return tee(obs)
}

type tee []Observer

func (t tee) Rebuilt(kind model.Kind, n int, took time.Duration) {
	for _, o := range t {
		o.Rebuilt(kind, n, took)
	}
}

func (t tee) Mutated(op, id string, version uint64) {
	for _, o := range t {
		o.Mutated(op, id, version)
	}
}

func (t tee) CacheHit(view string, version uint64) {
	for _, o := range t {
		o.CacheHit(view, version)
	}
}

func (t tee) CacheMiss(view string, version uint64) {
	for _, o := range t {
		o.CacheMiss(view, version)
	}
}
