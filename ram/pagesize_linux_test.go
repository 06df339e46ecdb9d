//go:build linux

package ram

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestPageSizeForFDFallback(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pagesize")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()

	// A regular tmpfs/ext4 file is not hugetlbfs-backed, so this must
	// fall back to the host page size.
	if got, want := PageSizeForFD(int(f.Fd())), hostPageSize(); got != want {
		t.Errorf("PageSizeForFD() = %d, want %d", got, want)
	}
}

func TestPageSizeForFDNegative(t *testing.T) {
	if got, want := PageSizeForFD(-1), hostPageSize(); got != want {
		t.Errorf("PageSizeForFD(-1) = %d, want %d", got, want)
	}
}

func TestPageSizeConsistency(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pagesize")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()

	byFD := PageSizeForFD(int(f.Fd()))
	byPath := PageSizeForPath(f.Name())
	if byFD != byPath {
		t.Errorf("PageSizeForFD() = %d, PageSizeForPath() = %d, want equal", byFD, byPath)
	}
}

func TestPageSizeForPathFatalOnMissingPath(t *testing.T) {
	called := false
	orig := fatalHook
	fatalHook = func() { called = true }
	defer func() { fatalHook = orig }()

	PageSizeForPath("/nonexistent/path/for/ram/test")

	if !called {
		t.Error("expected fatalHook to be invoked for a nonexistent path")
	}
}

func TestHostPageSizeMatchesGetpagesize(t *testing.T) {
	if got, want := hostPageSize(), uintptr(unix.Getpagesize()); got != want {
		t.Errorf("hostPageSize() = %d, want %d", got, want)
	}
}
