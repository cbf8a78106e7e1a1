package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// pollCap bounds how long the pruner can sleep before re-checking the
// shutdown signal. It is load-bearing for teardown latency: without it, a
// pruner scheduled for a cutoff many hours away would block shutdown for
// that long.
const pollCap = time.Second

// shutdownJoinTimeout bounds how long Teardown waits for the pruner
// goroutine to exit before giving up.
const shutdownJoinTimeout = 2 * time.Second

// pruner is the single long-lived actor that cancels every GoodForDay order
// once the wall clock reaches the configured cutoff. It is built on
// gopkg.in/tomb.v2, the same supervision primitive the teacher repo uses for
// its TCP worker pool and server shutdown path.
type pruner struct {
	book  *OrderBook
	clock Clock
	tomb  tomb.Tomb
}

func newPruner(book *OrderBook, clock Clock) *pruner {
	return &pruner{book: book, clock: clock}
}

func (p *pruner) Start() {
	p.tomb.Go(p.run)
}

// Stop signals shutdown and joins the pruner goroutine with a bounded
// timeout. Idempotent: calling it after the pruner has already died is a
// no-op.
func (p *pruner) Stop() {
	p.tomb.Kill(nil)
	select {
	case <-p.tomb.Dead():
	case <-time.After(shutdownJoinTimeout):
		log.Warn().Msg("pruner did not exit within shutdown timeout")
	}
}

func (p *pruner) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.tomb.Alive() {
				err = fmt.Errorf("pruner: %v", r)
				log.Error().Interface("panic", r).Msg("pruner exception, not shutting down")
				return
			}
			log.Debug().Interface("panic", r).Msg("pruner exception suppressed during shutdown")
		}
	}()

	log.Info().Msg("day-scoped pruner starting")
	for {
		if p.waitUntilCutoff() {
			log.Info().Msg("day-scoped pruner stopping")
			return nil
		}

		ids := p.book.goodForDayIDs()
		for _, id := range ids {
			p.book.Cancel(id)
		}
		if len(ids) > 0 {
			log.Info().Int("count", len(ids)).Msg("pruned good-for-day orders")
		}
	}
}

// waitUntilCutoff blocks, sleeping at most pollCap between checks, until the
// clock reaches the next 16:00 local cutoff. It returns true if shutdown
// was signalled first.
func (p *pruner) waitUntilCutoff() bool {
	cutoff := nextCutoff(p.clock.Now())
	for {
		remaining := cutoff.Sub(p.clock.Now())
		if remaining <= 0 {
			return false
		}
		wait := remaining
		if wait > pollCap {
			wait = pollCap
		}
		select {
		case <-p.tomb.Dying():
			return true
		case <-time.After(wait):
		}
	}
}
