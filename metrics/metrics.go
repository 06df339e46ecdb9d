// Package metrics collects atomic operation counters for the ram and
// coroutine packages, in the same shape as the teacher's
// vmCreateCount/GetMetrics/ResetMetrics trio.
package metrics

import (
	"sync/atomic"
	"time"
)

var (
	mapOperations        uint64
	unmapOperations      uint64
	persistenceFallbacks uint64
	totalMapTimeNs       uint64

	coroutineCreates    uint64
	coroutineEnters     uint64
	coroutineYields     uint64
	coroutineTerminates uint64
	coroutinePoolHits   uint64
	coroutinePoolMisses uint64
	totalEnterTimeNs    uint64
)

// Snapshot is a point-in-time read of every counter, JSON-tagged the
// way the teacher's Metrics struct is for CLI/debug dumps.
type Snapshot struct {
	MapOperations        uint64 `json:"map_operations"`
	UnmapOperations      uint64 `json:"unmap_operations"`
	PersistenceFallbacks uint64 `json:"persistence_fallbacks"`
	AvgMapTimeNs         uint64 `json:"avg_map_time_ns"`

	CoroutineCreates    uint64 `json:"coroutine_creates"`
	CoroutineEnters     uint64 `json:"coroutine_enters"`
	CoroutineYields     uint64 `json:"coroutine_yields"`
	CoroutineTerminates uint64 `json:"coroutine_terminates"`
	CoroutinePoolHits   uint64 `json:"coroutine_pool_hits"`
	CoroutinePoolMisses uint64 `json:"coroutine_pool_misses"`
	AvgEnterTimeNs      uint64 `json:"avg_enter_time_ns"`
}

// Get returns the current counter values.
func Get() Snapshot {
	maps := atomic.LoadUint64(&mapOperations)
	enters := atomic.LoadUint64(&coroutineEnters)

	var avgMap, avgEnter uint64
	if maps > 0 {
		avgMap = atomic.LoadUint64(&totalMapTimeNs) / maps
	}
	if enters > 0 {
		avgEnter = atomic.LoadUint64(&totalEnterTimeNs) / enters
	}

	return Snapshot{
		MapOperations:        maps,
		UnmapOperations:      atomic.LoadUint64(&unmapOperations),
		PersistenceFallbacks: atomic.LoadUint64(&persistenceFallbacks),
		AvgMapTimeNs:         avgMap,
		CoroutineCreates:     atomic.LoadUint64(&coroutineCreates),
		CoroutineEnters:      enters,
		CoroutineYields:      atomic.LoadUint64(&coroutineYields),
		CoroutineTerminates:  atomic.LoadUint64(&coroutineTerminates),
		CoroutinePoolHits:    atomic.LoadUint64(&coroutinePoolHits),
		CoroutinePoolMisses:  atomic.LoadUint64(&coroutinePoolMisses),
		AvgEnterTimeNs:       avgEnter,
	}
}

// Reset clears every counter. Intended for test isolation between
// table-driven subtests that each assert on absolute counts.
func Reset() {
	atomic.StoreUint64(&mapOperations, 0)
	atomic.StoreUint64(&unmapOperations, 0)
	atomic.StoreUint64(&persistenceFallbacks, 0)
	atomic.StoreUint64(&totalMapTimeNs, 0)
	atomic.StoreUint64(&coroutineCreates, 0)
	atomic.StoreUint64(&coroutineEnters, 0)
	atomic.StoreUint64(&coroutineYields, 0)
	atomic.StoreUint64(&coroutineTerminates, 0)
	atomic.StoreUint64(&coroutinePoolHits, 0)
	atomic.StoreUint64(&coroutinePoolMisses, 0)
	atomic.StoreUint64(&totalEnterTimeNs, 0)
}

func RecordMap(d time.Duration) {
	atomic.AddUint64(&mapOperations, 1)
	atomic.AddUint64(&totalMapTimeNs, uint64(d.Nanoseconds()))
}

func RecordUnmap() {
	atomic.AddUint64(&unmapOperations, 1)
}

func RecordPersistenceFallback() {
	atomic.AddUint64(&persistenceFallbacks, 1)
}

func RecordCoroutineCreate() {
	atomic.AddUint64(&coroutineCreates, 1)
}

func RecordCoroutineEnter(d time.Duration) {
	atomic.AddUint64(&coroutineEnters, 1)
	atomic.AddUint64(&totalEnterTimeNs, uint64(d.Nanoseconds()))
}

func RecordCoroutineYield() {
	atomic.AddUint64(&coroutineYields, 1)
}

func RecordCoroutineTerminate() {
	atomic.AddUint64(&coroutineTerminates, 1)
}

func RecordCoroutinePoolHit() {
	atomic.AddUint64(&coroutinePoolHits, 1)
}

func RecordCoroutinePoolMiss() {
	atomic.AddUint64(&coroutinePoolMisses, 1)
}
