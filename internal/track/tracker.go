// Package track is the aircraft tracking core: per-message ingest under a
// per-field validity lattice, CPR-based position resolution, and periodic
// expiry/reaping/Mode-A-C correlation. It is a single-threaded cooperative
// state machine by design — see SPEC_FULL.md §1.5 — so nothing in this
// package takes a lock; concurrent access belongs to the caller.
package track

import (
	"github.com/sirupsen/logrus"

	"go1090track/internal/clock"
	"go1090track/internal/modeac"
)

// TTLMs is how long an aircraft may go unseen before the sweeper reaps it.
const TTLMs = 300000

// OneHitTTLMs is the (much shorter) TTL applied to aircraft that have only
// ever produced a single message, to keep noise/garbage contacts from
// lingering.
const OneHitTTLMs = 30000

// Tracker owns the registry, clock, Mode A/C correlation table, and
// statistics for one receiver's worth of tracked aircraft.
type Tracker struct {
	cfg Config
	log *logrus.Logger

	clock    *clock.Clock
	registry *registry
	modeac   *modeac.Table
	Stats    Stats
}

// New returns a ready Tracker. log may be nil, in which case a logger that
// discards everything is used — the hot path never depends on logging.
func New(cfg Config, log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.New()
		log.SetOutput(discardWriter{})
	}
	return &Tracker{
		cfg:      cfg,
		log:      log,
		clock:    clock.New(),
		registry: newRegistry(),
		modeac:   modeac.NewTable(),
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Count returns the number of aircraft currently tracked.
func (t *Tracker) Count() int { return t.registry.Count() }

// Snapshot returns a copy of every tracked aircraft's current state: the
// slice is a point-in-time copy, not a view into the live registry. Like the
// rest of this package it takes no lock, so a caller on another goroutine
// must serialize it with Update and PeriodicUpdate.
func (t *Tracker) Snapshot() []Aircraft {
	out := make([]Aircraft, 0, t.registry.Count())
	t.registry.forEach(func(a *Aircraft) {
		cp := *a
		cp.Next = nil
		out = append(out, cp)
	})
	return out
}
