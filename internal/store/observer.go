package store

import (
	"context"

	"github.com/roach88/qlbind/internal/compiler"
)

// Observer records every resolution the compiler reports into the journal.
// It implements compiler.Observer.
type Observer struct {
	ctx     context.Context
	store   *Store
	session string
	clock   Sequencer
}

// Observer returns a compiler observer writing to s under session, stamping
// records with seq from clock.
func (s *Store) Observer(ctx context.Context, session string, clock Sequencer) *Observer {
	return &Observer{ctx: ctx, store: s, session: session, clock: clock}
}

// ObserveResolution implements compiler.Observer.
func (o *Observer) ObserveResolution(rec compiler.ResolutionRecord) error {
	_, err := o.store.Record(o.ctx, o.session, o.clock.Next(), rec)
	return err
}

var _ compiler.Observer = (*Observer)(nil)
