// Package coroutine implements cooperative, stackful-style coroutines
// on top of goroutines and rendezvous channels, grounded on QEMU's
// util/qemu-coroutine.c. Go gives every goroutine its own real stack
// and offers no portable primitive for switching one stack onto
// another, so where the original swaps stack pointers this package
// parks the callee's goroutine on a channel receive and wakes it by
// sending — the goroutine's own stack holds its continuation exactly
// the way a ucontext-style coroutine's stack would.
package coroutine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/blacktop/go-machine-rt/metrics"
)

type coroutineAction int

const (
	actionYield coroutineAction = iota
	actionTerminate
)

// EntryFunc is a coroutine body. It is handed its own handle because
// Go has no analogue of qemu_coroutine_self() — no portable way for a
// deeply nested call to discover "which goroutine am I" — so instead
// of an implicit current-coroutine lookup, the body calls self.Yield()
// explicitly. The scheduling behavior this produces is identical to
// the original's implicit yield(); only the receiver is spelled out.
type EntryFunc func(self *Coroutine, arg any)

// Coroutine is one cooperatively-scheduled unit of execution.
type Coroutine struct {
	entry    EntryFunc
	entryArg any

	caller *Coroutine
	ctx    *Context
	pool   *Pool

	scheduled atomic.Pointer[string]
	running   atomic.Bool
	locksHeld int32

	wakeupHead *Coroutine
	wakeupTail *Coroutine
	next       *Coroutine // pending-queue linkage, owned by Enter's drain loop

	resumeCh chan struct{}
	yieldCh  chan yieldMsg
}

// yieldMsg is what a coroutine's goroutine reports back to EnterOn.
// panicVal carries a recovered panic so misuse inside the coroutine's
// own goroutine (e.g. a recursive self-entry) surfaces as a panic on
// the entering goroutine instead of silently crashing an unrelated
// goroutine — the fatal-abort semantics the spec calls for, made
// recoverable at the one call site that can actually decide what to
// do about it.
type yieldMsg struct {
	action   coroutineAction
	panicVal any
}

// Context is an opaque scheduling domain. Exactly one coroutine may be
// running on a Context at any instant (the "single-runner-per-context"
// invariant) — callers never need to pass "who is currently running"
// explicitly because the Context itself tracks it.
type Context struct {
	current *Coroutine
}

// DefaultContext is the process-wide scheduling context used by the
// package-level Create/Enter surface. Tests and embedders that want an
// isolated runtime should build their own *Context and *Pool and call
// CreateIn/EnterOn directly.
var DefaultContext = &Context{}

// Create allocates a coroutine bound to the default pool and context.
func Create(entry EntryFunc, arg any) *Coroutine {
	return CreateIn(DefaultPool, entry, arg)
}

// CreateIn allocates a coroutine from the given pool, reusing a parked
// goroutine if one is available rather than spawning a fresh one.
func CreateIn(pool *Pool, entry EntryFunc, arg any) *Coroutine {
	co := pool.acquire()
	if co != nil {
		metrics.RecordCoroutinePoolHit()
	} else {
		metrics.RecordCoroutinePoolMiss()
		co = pool.newCoroutine()
	}
	co.entry = entry
	co.entryArg = arg
	co.pool = pool
	metrics.RecordCoroutineCreate()
	return co
}

// loop is the coroutine's permanent goroutine body: it blocks for a
// resume signal, runs the current entry to completion or until it
// yields, and reports back over yieldCh. After Terminate it blocks
// again waiting either for recycling (a new entry installed before the
// next resume) or for resumeCh to be closed by the pool on eviction.
func (co *Coroutine) loop() {
	for range co.resumeCh {
		if panicVal := co.runEntry(); panicVal != nil {
			co.yieldCh <- yieldMsg{action: actionTerminate, panicVal: panicVal}
		} else {
			co.yieldCh <- yieldMsg{action: actionTerminate}
		}
	}
}

func (co *Coroutine) runEntry() (panicVal any) {
	defer func() {
		panicVal = recover()
	}()
	co.entry(co, co.entryArg)
	return nil
}

// Enter transfers control to co on the default context.
func Enter(co *Coroutine) {
	EnterOn(DefaultContext, co)
}

// EnterOn transfers control to co on the given context, draining any
// coroutines co queues for wakeup via QueueWakeup before returning
// control to the caller. This is qemu_aio_coroutine_enter, unchanged
// in meaning: the drain order is depth-first with each coroutine's own
// wakeup queue spliced onto the FRONT of the pending list, so a
// coroutine queued deeper in the chain runs before siblings queued
// earlier at a shallower level.
func EnterOn(ctx *Context, co *Coroutine) {
	from := ctx.current

	co.next = nil
	pendingHead := co

	for pendingHead != nil {
		to := pendingHead
		pendingHead = to.next
		to.next = nil

		if s := to.scheduled.Load(); s != nil {
			panic(fmt.Sprintf("coroutine: re-entering %p which is claimed by external wake path %q", to, *s))
		}
		if !to.running.CompareAndSwap(false, true) {
			panic(fmt.Sprintf("coroutine: double-enter of %p, which is already running", to))
		}

		to.caller = from
		to.ctx = ctx
		ctx.current = to

		start := time.Now()
		to.resumeCh <- struct{}{}
		msg := <-to.yieldCh
		metrics.RecordCoroutineEnter(time.Since(start))

		to.running.Store(false)
		ctx.current = from

		// Splice to's own wakeup queue onto the FRONT of pending: this
		// is the depth-first property under test — coroutines that to
		// itself queued during its slice run before anything that was
		// already waiting in pending before to's turn.
		if to.wakeupHead != nil {
			to.wakeupTail.next = pendingHead
			pendingHead = to.wakeupHead
			to.wakeupHead, to.wakeupTail = nil, nil
		}

		if msg.panicVal != nil {
			to.pool.release(to)
			panic(msg.panicVal)
		}

		switch msg.action {
		case actionYield:
			metrics.RecordCoroutineYield()
		case actionTerminate:
			if atomic.LoadInt32(&to.locksHeld) != 0 {
				panic(fmt.Sprintf("coroutine: %p terminated while holding %d lock(s)", to, to.locksHeld))
			}
			metrics.RecordCoroutineTerminate()
			to.pool.release(to)
		default:
			panic(fmt.Sprintf("coroutine: unknown action %v", msg.action))
		}
	}
}

// Yield suspends self and returns control to whoever entered it. It
// resumes exactly where it left off the next time self is entered
// again — the call does not return until that happens.
func (co *Coroutine) Yield() {
	if co.ctx == nil || co.ctx.current != co {
		panic("coroutine: Yield called by a coroutine that is not the current runner on its context")
	}
	co.yieldCh <- yieldMsg{action: actionYield}
	if _, ok := <-co.resumeCh; !ok {
		panic("coroutine: resumed after eviction from the pool")
	}
}

// QueueWakeup enqueues target to be entered immediately after self's
// current slice finishes, ahead of anything already pending at a
// shallower level. This is QEMU's co_queue_wakeup list: a same-thread,
// same-Enter-call FIFO, distinct from the cross-context scheduled
// claim below.
func (co *Coroutine) QueueWakeup(target *Coroutine) {
	target.next = nil
	if co.wakeupTail == nil {
		co.wakeupHead = target
	} else {
		co.wakeupTail.next = target
	}
	co.wakeupTail = target
}

// MarkScheduled claims co for an external (cross-context) wake path,
// the qemu_coroutine_enter analogue of aio_co_schedule. It reports
// false if co was already claimed. Entering a coroutine while it
// carries a live claim is a misuse abort, enforced in EnterOn.
func (co *Coroutine) MarkScheduled(tag string) bool {
	return co.scheduled.CompareAndSwap(nil, &tag)
}

// ClearScheduled releases a claim made by MarkScheduled.
func (co *Coroutine) ClearScheduled() {
	co.scheduled.Store(nil)
}

// AcquireLock records that self is holding a cooperative lock,
// tracked so that terminating while locks are still held is caught as
// a programming error rather than silently leaking them.
func (co *Coroutine) AcquireLock() {
	atomic.AddInt32(&co.locksHeld, 1)
}

// ReleaseLock releases a lock recorded by AcquireLock.
func (co *Coroutine) ReleaseLock() {
	if atomic.AddInt32(&co.locksHeld, -1) < 0 {
		panic("coroutine: ReleaseLock called without a matching AcquireLock")
	}
}

// Entered reports whether co is anywhere in the active call chain —
// entered and not yet yielded or terminated — not merely whether it is
// the literal top of its context's stack right now. A coroutine that
// itself entered another one without yielding is still "entered" for
// the whole nested duration, so this reads running rather than
// ctx.current: running is set when EnterOn hands co control and only
// cleared after co's own slice ends, which is exactly that span.
func (co *Coroutine) Entered() bool {
	return co.running.Load()
}

// EnterIfInactive enters co only if it is not already active anywhere
// in the call chain (see Entered), returning whether it actually
// entered it. This
// answers the distilled spec's open question in favor of treating
// "already active" as a safe no-op rather than an error, matching the
// common caller pattern of unconditionally nudging a coroutine that
// may or may not already be running.
func EnterIfInactive(ctx *Context, co *Coroutine) bool {
	if co.Entered() {
		return false
	}
	EnterOn(ctx, co)
	return true
}

// CurrentContext returns the context co was last entered on, or nil if
// co has never been entered.
func CurrentContext(co *Coroutine) *Context {
	return co.ctx
}
