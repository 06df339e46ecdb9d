//go:build !linux

package ram

import "github.com/blacktop/go-machine-rt/hverror"

// Map is unavailable on non-Linux hosts: the guard-page and
// hugepage/pmem flag negotiation this package implements targets
// Linux's mmap(2)/mprotect(2)/fstatfs(2) contract specifically, the
// same way the teacher package's VM/VCPU surface is Darwin/ARM64 only
// and falls back to "not supported" stubs elsewhere.
func Map(fd int, size, align uintptr, shared, isPmem bool) (Region, error) {
	return Region{}, hverror.New(hverror.KindUnsupported, "ram: mapping not supported on this platform")
}

// Unmap mirrors Map's stub on non-Linux hosts.
func Unmap(region Region) error {
	return hverror.New(hverror.KindUnsupported, "ram: mapping not supported on this platform")
}
