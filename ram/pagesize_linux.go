//go:build linux

package ram

import (
	"golang.org/x/sys/unix"
)

// PageSizeForFD returns the page size backing fd, consulting fstatfs to
// detect a hugetlbfs-backed file. Interrupted probes are retried. A
// probe failure on a non-hugepage filesystem is non-fatal: it falls
// back to the host page size, matching qemu_fd_getpagesize.
func PageSizeForFD(fd int) uintptr {
	if fd < 0 {
		return hostPageSize()
	}

	var fs unix.Statfs_t
	var err error
	for {
		err = unix.Fstatfs(fd, &fs)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		logger().Debug("fstatfs probe failed, falling back to host page size", "fd", fd, "error", err)
		return hostPageSize()
	}
	if fs.Type == unix.HUGETLBFS_MAGIC {
		return uintptr(fs.Bsize)
	}
	return hostPageSize()
}

// PageSizeForPath is the path-based analogue of PageSizeForFD. Unlike
// PageSizeForFD, a probe failure here is fatal: a caller providing a
// path has asserted that the path exists and is meaningful, matching
// qemu_mempath_getpagesize's exit(1) on statfs failure.
func PageSizeForPath(path string) uintptr {
	var fs unix.Statfs_t
	var err error
	for {
		err = unix.Statfs(path, &fs)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		logger().Error("statfs probe failed", "path", path, "error", err)
		fatalHook()
		return 0
	}
	if fs.Type == unix.HUGETLBFS_MAGIC {
		return uintptr(fs.Bsize)
	}
	return hostPageSize()
}
