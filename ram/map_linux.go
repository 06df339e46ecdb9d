//go:build linux

package ram

import (
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/blacktop/go-machine-rt/hverror"
	"github.com/blacktop/go-machine-rt/metrics"
)

// Map reserves a page-aligned, guard-fenced region of host virtual
// memory suitable for guest physical RAM, grounded on QEMU's
// qemu_ram_mmap (util/mmap-alloc.c). fd < 0 requests an anonymous
// mapping; fd >= 0 backs the mapping with that file descriptor, except
// on ppc64/ppc64le where an fd whose page size equals the host's is
// mapped anonymously (see negotiateFlags).
func Map(fd int, size, align uintptr, shared, isPmem bool) (Region, error) {
	start := time.Now()
	defer func() { metrics.RecordMap(time.Since(start)) }()

	if size == 0 {
		return Region{}, hverror.ErrInvalidSize
	}
	if align == 0 || align&(align-1) != 0 {
		return Region{}, hverror.ErrInvalidAlignment
	}
	if align < PageSizeForFD(fd) {
		return Region{}, hverror.ErrInvalidAlignment
	}

	mapfd, pagesize, flags := negotiateFlags(fd)

	if mapfd < 0 {
		flags |= unix.MAP_ANON
	}
	if shared {
		flags |= unix.MAP_SHARED
	} else {
		flags |= unix.MAP_PRIVATE
	}

	syncFlags := 0
	if shared && isPmem {
		syncFlags = unix.MAP_SYNC | unix.MAP_SHARED_VALIDATE
	}

	total := size + align + pagesize

	raw, err := unix.Mmap(mapfd, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, flags|syncFlags)
	if err != nil && syncFlags != 0 {
		if err == unix.ENOTSUP {
			logger().Warn("persistent-memory mapping unsupported by kernel, retrying without MAP_SYNC",
				"file", backingFileName(fd))
			metrics.RecordPersistenceFallback()
		}
		// Retry with the same total length: the original source retries
		// with length=size only, which leaves the alignment/guard logic
		// below assuming a reservation that was never actually made.
		// This implementation keeps the full reservation on retry, per
		// the distilled spec's recommendation.
		raw, err = unix.Mmap(mapfd, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, flags)
	}
	if err != nil {
		return Region{}, hverror.Wrap(hverror.KindInternal, "mmap failed", err)
	}

	rawAddr := uintptr(unsafe.Pointer(&raw[0]))
	offset := alignUp(rawAddr, align) - rawAddr

	if offset > 0 {
		if err := unix.Mprotect(raw[:offset], unix.PROT_NONE); err != nil {
			_ = unix.Munmap(raw)
			return Region{}, hverror.Wrap(hverror.KindInternal, "failed to protect leading guard page", err)
		}
	}

	remaining := total - offset
	if remaining > size+pagesize {
		guardStart := offset + size
		if err := unix.Mprotect(raw[guardStart:guardStart+pagesize], unix.PROT_NONE); err != nil {
			logger().Warn("failed to protect trailing guard page", "error", err)
		}
	}

	return Region{
		Base:     raw[offset : offset+size],
		Size:     size,
		PageSize: pagesize,
		rawAddr:  rawAddr,
		rawLen:   total,
	}, nil
}

// Unmap releases the entire reservation a prior Map call made. A zero
// Region (region.Base == nil) is a no-op.
func Unmap(region Region) error {
	if region.Base == nil {
		return nil
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(region.rawAddr)), region.rawLen)
	if err := unix.Munmap(raw); err != nil {
		return hverror.Wrap(hverror.KindInternal, "munmap failed", err)
	}
	metrics.RecordUnmap()
	return nil
}

// negotiateFlags picks the mmap file descriptor, page size, and any
// extra flags the reservation needs beyond ANON/PRIVATE/SHARED (which
// Map decides based on fd and the shared argument), handling the
// ppc64/Linux same-segment-page-size requirement described in the
// upstream source: when the backing fd's page size differs from the
// host's, the kernel must map the fd itself (with MAP_NORESERVE)
// rather than an anonymous region, or guest RAM accounting goes wrong.
func negotiateFlags(fd int) (mapfd int, pagesize uintptr, flags int) {
	if runtime.GOARCH == "ppc64" || runtime.GOARCH == "ppc64le" {
		pagesize = PageSizeForFD(fd)
		if fd < 0 || pagesize == hostPageSize() {
			return -1, pagesize, 0
		}
		return fd, pagesize, unix.MAP_NORESERVE
	}
	return fd, hostPageSize(), 0
}

// backingFileName best-effort resolves the path backing fd via
// /proc/self/fd, for the persistence-fallback warning. An unreadable
// link yields an empty name, matching the upstream source's
// readlink-or-empty behavior.
func backingFileName(fd int) string {
	if fd < 0 {
		return ""
	}
	name, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", fd))
	if err != nil {
		return ""
	}
	return name
}
