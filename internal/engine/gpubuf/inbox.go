package gpubuf

import (
	"fmt"
	"sync"

	"github.com/Faultbox/meshview/internal/mesh"
)

// Delivery is the result of one background load. Generation is the inbox
// generation the load was started under.
type Delivery struct {
	Label      string
	Meshes     mesh.Sequence
	Err        error
	Generation uint64
}

// Inbox hands loaded records from worker goroutines to the goroutine that
// owns the graphics context.
type Inbox struct {
	mu    sync.Mutex
	gen   uint64
	queue []Delivery
}

// Generation returns the current generation. Loads should stamp their
// delivery with the value read when they start.
func (b *Inbox) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Reset discards queued deliveries and starts a new generation. Deliveries
// stamped with an older generation are dropped when posted.
func (b *Inbox) Reset() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.queue = nil
	return b.gen
}

// Post queues a delivery unless it belongs to an earlier generation. It
// reports whether the delivery was queued. Safe for concurrent use.
func (b *Inbox) Post(d Delivery) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.Generation != b.gen {
		return false
	}
	b.queue = append(b.queue, d)
	return true
}

// Drain adds every queued delivery to c, in posting order. It must be called
// from the owning goroutine. It returns the number of records added and one
// error per failed delivery.
func (b *Inbox) Drain(c *Collection) (int, []error) {
	b.mu.Lock()
	queue := b.queue
	b.queue = nil
	b.mu.Unlock()

	added := 0
	var errs []error
	for _, d := range queue {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Label, d.Err))
			continue
		}
		if err := c.Add(d.Meshes); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Label, err))
			continue
		}
		added += len(d.Meshes.Records())
	}
	return added, errs
}
