package indexing

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// PaceInterval is the fixed delay between two provider calls in a batch.
const PaceInterval = 100 * time.Millisecond

// Pacer spaces out provider calls to stay under the provider quota.
type Pacer struct {
	clock    clockwork.Clock
	interval time.Duration
}

func NewPacer(clock clockwork.Clock) *Pacer {
	return &Pacer{clock: clock, interval: PaceInterval}
}

// Wait blocks for the pacing interval. It ignores cancellation so a batch
// never skips its delay.
func (p *Pacer) Wait() {
	p.clock.Sleep(p.interval)
}
