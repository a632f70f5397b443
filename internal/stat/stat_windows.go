package stat

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mhalverson/scour/internal/entry"
)

// Extensions that earn the synthesized owner-execute bit.
var execExts = map[string]struct{}{
	".exe": {},
	".bat": {},
	".cmd": {},
	".com": {},
	".scr": {},
	".ps1": {},
	".vbs": {},
}

// Lstat returns the metadata record for path without following symlinks.
// Windows has no device/inode/uid/gid to report, so those are zero, and the
// POSIX mode is synthesized: type bits from the entry kind, owner read
// always, owner write unless the file is read-only, owner execute for
// directories and known executable extensions, with the owner triplet
// copied into the group and other positions.
func Lstat(path string) (entry.Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return entry.Record{}, err
	}

	var rec entry.Record
	rec.Size = uint64(info.Size())
	rec.Disk = (rec.Size + 511) / 512 * 512

	mode := uint32(entry.ModeRegular)
	if info.IsDir() {
		mode = entry.ModeDir
	}
	perm := uint32(0o400)
	if info.Mode().Perm()&0o200 != 0 {
		perm |= 0o200
	}
	if info.IsDir() || isExecutable(path) {
		perm |= 0o100
	}
	rec.Mode = mode | perm | perm>>3 | perm>>6

	if attrs, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		rec.Atime = attrs.LastAccessTime.Nanoseconds() / 1e9
		rec.Mtime = attrs.LastWriteTime.Nanoseconds() / 1e9
	} else {
		rec.Mtime = info.ModTime().Unix()
	}
	return rec, nil
}

func isExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := execExts[ext]
	return ok
}
