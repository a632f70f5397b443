//go:build linux || darwin

package stat

import (
	"syscall"

	"github.com/mhalverson/scour/internal/entry"
)

// Lstat returns the metadata record for path without following symlinks.
// Record.Path is left nil; the caller owns the path bytes.
func Lstat(path string) (entry.Record, error) {
	var st syscall.Stat_t
	if err := lstat(path, &st); err != nil {
		return entry.Record{}, err
	}
	atime, mtime := times(&st)
	return entry.Record{
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Atime: atime,
		Mtime: mtime,
		UID:   st.Uid,
		GID:   st.Gid,
		Mode:  uint32(st.Mode),
		Size:  uint64(st.Size),
		Disk:  uint64(st.Blocks) * 512,
	}, nil
}

func lstat(path string, st *syscall.Stat_t) error {
	for {
		err := syscall.Lstat(path, st)
		if err != syscall.EINTR {
			return err
		}
	}
}
