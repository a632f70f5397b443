// Package agg reduces a scan CSV into (folder, owner, age-bucket) rollups.
// The reduction is single-threaded and byte-faithful: paths stay raw bytes
// until the sorted emission, where invalid UTF-8 is replaced.
package agg

import (
	"sort"
	"strings"
	"time"

	"github.com/mhalverson/scour/internal/csvio"
	"github.com/mhalverson/scour/internal/entry"
	"github.com/mhalverson/scour/internal/pathutil"
)

// Age bucket thresholds. A day is 86400 seconds throughout.
const (
	AgeRecentDays = 60
	AgeMidDays    = 730

	// FutureTolerance is how far past "now" a timestamp may claim before it
	// is treated as unknown. Estate clocks skew, but not by more than a day.
	FutureTolerance = 86400

	daySeconds = 86400
)

// UnknownOwner is emitted when a uid cannot be resolved to a name.
const UnknownOwner = "UNK"

// Header is the exact first line of an aggregate CSV.
const Header = "path,user,age,files,disk,accessed,modified\n"

// Stats accumulates one (folder, owner, age) group.
type Stats struct {
	Files uint64
	Disk  uint64
	Atime int64 // latest sanitized access time
	Mtime int64 // latest sanitized modification time
}

type groupKey struct {
	owner string
	age   uint8
}

type folderAgg struct {
	groups map[groupKey]*Stats
}

// Reducer folds scan records into rollups keyed on (folder bytes, owner,
// age bucket). One Reducer serves one pass; it is not safe for concurrent
// use and never needs to be.
type Reducer struct {
	now     int64
	users   *userCache
	folders map[string]*folderAgg
	scratch []byte

	records   int64
	malformed int64
}

// NewReducer creates a reducer with the given reference time. A zero now
// means the current wall clock.
func NewReducer(now int64) *Reducer {
	if now == 0 {
		now = time.Now().Unix()
	}
	return &Reducer{
		now:     now,
		users:   newUserCache(),
		folders: make(map[string]*folderAgg, 4096),
	}
}

// Records returns the number of data rows consumed.
func (r *Reducer) Records() int64 { return r.records }

// Malformed returns the number of rows skipped for bad shape.
func (r *Reducer) Malformed() int64 { return r.malformed }

// Groups returns the number of distinct (folder, owner, age) triples.
func (r *Reducer) Groups() int {
	n := 0
	for _, f := range r.folders {
		n += len(f.groups)
	}
	return n
}

// UnknownUIDs returns the uids that failed resolution, ascending.
func (r *Reducer) UnknownUIDs() []uint64 { return r.users.unknownUIDs() }

// Scan CSV field order.
const (
	fieldAtime = 1
	fieldMtime = 2
	fieldUID   = 3
	fieldMode  = 5
	fieldDisk  = 7
	fieldPath  = 8
)

// Add folds one scan record, already split into fields, into the rollups.
// Rows with the wrong field count are counted and dropped; malformed
// numerics parse as zero and the row still aggregates.
func (r *Reducer) Add(fields [][]byte) {
	if len(fields) != csvio.FieldCount {
		r.malformed++
		return
	}
	r.records++

	atime := r.sanitize(csvio.ParseInt(fields[fieldAtime]))
	mtime := r.sanitize(csvio.ParseInt(fields[fieldMtime]))
	uid := csvio.ParseUint(fields[fieldUID])
	mode := csvio.ParseUint(fields[fieldMode])
	disk := csvio.ParseUint(fields[fieldDisk])

	key := groupKey{owner: r.users.name(uid), age: r.ageBucket(mtime)}
	isDir := uint32(mode)&entry.ModeTypeMask == entry.ModeDir

	r.scratch = pathutil.Rooted(r.scratch, pathutil.NormalizeSeparators(fields[fieldPath]))
	pathutil.Ancestors(r.scratch, isDir, func(folder []byte) {
		f := r.folders[string(folder)] // no-allocation lookup on the hot path
		if f == nil {
			f = &folderAgg{groups: make(map[groupKey]*Stats, 4)}
			r.folders[string(folder)] = f
		}
		st := f.groups[key]
		if st == nil {
			st = &Stats{}
			f.groups[key] = st
		}
		st.Files++
		st.Disk += disk
		if mtime > st.Mtime {
			st.Mtime = mtime
		}
		if atime > st.Atime {
			st.Atime = atime
		}
	})
}

// sanitize zeroes timestamps claiming to be more than FutureTolerance past
// the reference time; zero means unknown downstream.
func (r *Reducer) sanitize(t int64) int64 {
	if t > r.now+FutureTolerance {
		return 0
	}
	return t
}

// ageBucket classifies a sanitized mtime: 0 within AgeRecentDays, 1 within
// AgeMidDays, 2 beyond that or when the mtime is unknown.
func (r *Reducer) ageBucket(mtime int64) uint8 {
	if mtime <= 0 {
		return 2
	}
	age := r.now - mtime
	switch {
	case age <= AgeRecentDays*daySeconds:
		return 0
	case age <= AgeMidDays*daySeconds:
		return 1
	default:
		return 2
	}
}

// visitSorted walks every group in ascending (folder bytes, owner, age)
// order, the order both the CSV and database outputs promise.
func (r *Reducer) visitSorted(fn func(folder string, owner string, age uint8, st *Stats) error) error {
	folders := make([]string, 0, len(r.folders))
	for f := range r.folders {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	keys := make([]groupKey, 0, 16)
	for _, folder := range folders {
		fa := r.folders[folder]
		keys = keys[:0]
		for k := range fa.groups {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].owner != keys[j].owner {
				return keys[i].owner < keys[j].owner
			}
			return keys[i].age < keys[j].age
		})
		for _, k := range keys {
			if err := fn(folder, k.owner, k.age, fa.groups[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// displayPath converts raw folder bytes for output: UTF-8 with replacement
// of invalid sequences.
func displayPath(folder string) string {
	return strings.ToValidUTF8(folder, "�")
}
