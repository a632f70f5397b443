package stat

import "syscall"

func times(st *syscall.Stat_t) (atime, mtime int64) {
	return st.Atim.Sec, st.Mtim.Sec
}
