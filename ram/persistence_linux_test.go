//go:build linux

package ram

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// TestPersistenceFlagsFallback exercises the shared+pmem path end to
// end against a real tmpfs file. Whether the kernel actually rejects
// MAP_SYNC|MAP_SHARED_VALIDATE (driving the fallback branch) depends on
// the backing filesystem of the test's tmp dir, which CI does not
// control — tmpfs commonly rejects it, but this is not guaranteed
// reproducible the way a genuine DAX/pmem-backed test would be. Either
// branch succeeding is a pass; the assertion is that Map never returns
// an error for a request that legitimately falls back.
func TestPersistenceFlagsFallback(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pmem")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()

	size := uintptr(unix.Getpagesize())
	if err := f.Truncate(int64(size)); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	region, err := Map(int(f.Fd()), size, size, true, true)
	if err != nil {
		t.Fatalf("Map() with shared+pmem error = %v", err)
	}
	defer Unmap(region)

	if len(region.Base) != int(size) {
		t.Errorf("len(Base) = %d, want %d", len(region.Base), size)
	}
}
