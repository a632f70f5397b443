// Package csvio reads and writes scan CSV at the byte level. Paths on POSIX
// systems are arbitrary byte strings, so both directions avoid the
// string-typed encoding/csv machinery and never force UTF-8.
package csvio

import (
	"strconv"

	"github.com/mhalverson/scour/internal/entry"
)

// Header is the exact first line of a scan CSV.
const Header = "INODE,ATIME,MTIME,UID,GID,MODE,SIZE,DISK,PATH\n"

// FieldCount is the number of fields in a scan CSV row.
const FieldCount = 9

// AppendRecord appends one formatted row to b and returns the extended
// buffer. Callers reuse b across records so the hot path does not allocate.
func AppendRecord(b []byte, r *entry.Record) []byte {
	b = strconv.AppendUint(b, r.Dev, 10)
	b = append(b, '-')
	b = strconv.AppendUint(b, r.Ino, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, r.Atime, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, r.Mtime, 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(r.UID), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(r.GID), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(r.Mode), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, r.Size, 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, r.Disk, 10)
	b = append(b, ',')
	b = AppendField(b, r.Path)
	return append(b, '\n')
}

// AppendField appends field bytes to b, quoting when they contain a comma,
// quote, LF or CR. Embedded quotes are doubled. Quoting operates on bytes;
// the field need not be valid UTF-8.
func AppendField(b, field []byte) []byte {
	if !needsQuoting(field) {
		return append(b, field...)
	}
	b = append(b, '"')
	for _, c := range field {
		if c == '"' {
			b = append(b, '"', '"')
			continue
		}
		b = append(b, c)
	}
	return append(b, '"')
}

// AppendFieldString is AppendField for string fields.
func AppendFieldString(b []byte, field string) []byte {
	if !needsQuotingString(field) {
		return append(b, field...)
	}
	b = append(b, '"')
	for i := 0; i < len(field); i++ {
		if field[i] == '"' {
			b = append(b, '"', '"')
			continue
		}
		b = append(b, field[i])
	}
	return append(b, '"')
}

func needsQuoting(field []byte) bool {
	for _, c := range field {
		switch c {
		case ',', '"', '\n', '\r':
			return true
		}
	}
	return false
}

func needsQuotingString(field string) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case ',', '"', '\n', '\r':
			return true
		}
	}
	return false
}
