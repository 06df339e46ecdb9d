package ram

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	pageSizeOnce sync.Once
	realPageSize uintptr
)

// vmallocAlign mirrors QEMU_VMALLOC_ALIGN: on architectures whose MMU
// demands greater alignment than the nominal page size, allocations
// must honor this wider bound instead of the real page size. SPARC64
// is the only such target the upstream source names.
const vmallocAlign = 8192

// hostPageSize returns the host's real page size, replaced by
// vmallocAlign on architectures that demand greater alignment than the
// nominal page.
func hostPageSize() uintptr {
	pageSizeOnce.Do(func() {
		realPageSize = uintptr(unix.Getpagesize())
	})
	if runtime.GOARCH == "sparc64" {
		return vmallocAlign
	}
	return realPageSize
}
