package coroutine

import (
	"runtime"
	"sync/atomic"

	"github.com/blacktop/go-machine-rt/config"
)

// Pool is a fixed-capacity free list of recycled coroutines plus the
// live/free counters the distilled spec names total/top, grounded on
// QEMU's Coroutine_pool (util/qemu-coroutine.c). The upstream source
// carries a "TODO: implement a lockless stack here" admitting its
// counter pair is not race-free under concurrent producers and
// consumers; this implementation closes that race with a genuine
// lock-free stack: top is advanced with a compare-and-swap so two
// concurrent acquirers never claim the same slot, push reserves its
// slot index with the same CAS so top can never be driven past
// capacity, and each slot is published with an atomic pointer swap so
// two concurrent releasers never clobber each other's write.
type Pool struct {
	capacity int32
	total    int32
	top      int32
	slots    []atomic.Pointer[Coroutine]
}

// NewPool builds an isolated pool with the given capacity. Most
// callers want DefaultPool; NewPool exists so tests can exercise pool
// exhaustion and recycling without disturbing the process-wide
// singleton, per the distilled spec's "parameterize by scheduling
// context" redesign note.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		capacity: int32(capacity),
		slots:    make([]atomic.Pointer[Coroutine], capacity),
	}
}

// DefaultPool is the process-wide singleton backing the package-level
// Create/Enter surface.
var DefaultPool = NewPool(config.Get().PoolCapacity)

// Total reports the number of live coroutines, running or pooled.
func (p *Pool) Total() int {
	return int(atomic.LoadInt32(&p.total))
}

// Occupancy reports how many coroutines currently sit on the free
// list.
func (p *Pool) Occupancy() int {
	return int(atomic.LoadInt32(&p.top))
}

// Capacity reports the pool's fixed slot count.
func (p *Pool) Capacity() int {
	return int(p.capacity)
}

// acquire pops a coroutine off the free list, or returns nil if empty.
func (p *Pool) acquire() *Coroutine {
	for {
		top := atomic.LoadInt32(&p.top)
		if top <= 0 {
			return nil
		}
		newTop := top - 1
		if !atomic.CompareAndSwapInt32(&p.top, top, newTop) {
			continue
		}
		// The slot may not be published yet if a concurrent release's
		// CompareAndSwap landed before its Store; spin briefly rather
		// than block, since the window between the two is a handful of
		// instructions.
		for {
			if co := p.slots[newTop].Swap(nil); co != nil {
				return co
			}
			runtime.Gosched()
		}
	}
}

// newCoroutine allocates a fresh coroutine and its backing goroutine,
// counting it against total.
func (p *Pool) newCoroutine() *Coroutine {
	atomic.AddInt32(&p.total, 1)
	co := &Coroutine{
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan yieldMsg, 1),
	}
	go co.loop()
	return co
}

// release recycles co into the free list if there is room under
// capacity, otherwise shuts down its goroutine and frees the slot
// entirely. The capacity check and the reservation of a slot index are
// done as a single CAS loop on top: gating on a separately-loaded total
// (as upstream does) lets concurrent releasers each observe a stale
// under-capacity reading before any of their own decrements land, all
// take the push branch, and drive top past capacity, an out-of-range
// slots write. CAS-ing top itself only ever hands out an index below
// capacity, so it cannot.
func (p *Pool) release(co *Coroutine) {
	co.caller = nil

	for {
		top := atomic.LoadInt32(&p.top)
		if top >= p.capacity {
			atomic.AddInt32(&p.total, -1)
			close(co.resumeCh)
			return
		}
		if atomic.CompareAndSwapInt32(&p.top, top, top+1) {
			p.slots[top].Store(co)
			return
		}
	}
}
