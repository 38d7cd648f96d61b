//go:build unix

package serialization

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile maps a file private and copy-on-write, so views may be written
// without touching the file.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: file size validated by caller
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE,
	)
}

// munmapFile unmaps a memory-mapped file.
func munmapFile(data []byte) error {
	return unix.Munmap(data)
}
