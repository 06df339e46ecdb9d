// Package ram implements the guest-RAM mapper: an allocator that
// reserves a page-aligned, guard-protected region of host virtual
// memory suitable for use as guest physical RAM, optionally backed by
// a file descriptor for file-backed, shared, hugepage, or
// persistent-memory mappings.
//
// The implementation is grounded on QEMU's util/mmap-alloc.c
// (qemu_ram_mmap/qemu_ram_munmap/qemu_fd_getpagesize/qemu_mempath_getpagesize),
// translated onto golang.org/x/sys/unix the way the teacher package
// translates Apple's Hypervisor.framework onto cgo.
package ram

import (
	"log/slog"
	"os"
)

// Region describes a mapped guest RAM region returned by Map. Base is
// the page-aligned, guard-fenced slice the caller may read and write;
// everything else is bookkeeping Unmap needs to release the whole
// reservation.
type Region struct {
	// Base is the user-visible, aligned mapping of length Size.
	Base []byte
	// Size is the originally requested size in bytes.
	Size uintptr
	// PageSize is the page size used for the trailing guard.
	PageSize uintptr

	rawAddr uintptr
	rawLen  uintptr
}

var pkgLogger = slog.Default()

// SetLogger overrides the package-level logger used for the
// persistence-fallback warning and probe-failure debug lines. Intended
// for tests that want to assert on log output without touching
// slog.Default().
func SetLogger(l *slog.Logger) {
	pkgLogger = l
}

func logger() *slog.Logger {
	return pkgLogger
}

// fatalHook lets tests observe the PageSizeForPath fatal path without
// actually terminating the test binary.
var fatalHook = func() {
	os.Exit(1)
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
