package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mhalverson/scour/internal/csvio"
)

// Folder holds the rollup totals for one folder across owners and ages.
type Folder struct {
	Path     string
	Files    uint64
	Disk     uint64
	OldDisk  uint64 // disk in the oldest age bucket
	Mtime    int64
	Owners   map[string]uint64 // disk per owner
	Children []string
}

// Index is an in-memory view over one aggregate CSV.
type Index struct {
	Root    string
	folders map[string]*Folder
}

// Load reads an aggregate CSV into an Index.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open aggregate: %w", err)
	}
	defer f.Close()

	idx := &Index{folders: make(map[string]*Folder, 4096)}
	r := csvio.NewReader(f)
	first := true
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read aggregate: %w", err)
		}
		if first {
			first = false
			if len(fields) > 0 && string(fields[0]) == "path" {
				continue
			}
		}
		if len(fields) != 7 {
			continue
		}
		folder := string(fields[0])
		owner := string(fields[1])
		age := csvio.ParseUint(fields[2])
		files := csvio.ParseUint(fields[3])
		disk := csvio.ParseUint(fields[4])
		mtime := csvio.ParseInt(fields[6])

		fo := idx.folders[folder]
		if fo == nil {
			fo = &Folder{Path: folder, Owners: make(map[string]uint64, 4)}
			idx.folders[folder] = fo
		}
		fo.Files += files
		fo.Disk += disk
		if age == 2 {
			fo.OldDisk += disk
		}
		if mtime > fo.Mtime {
			fo.Mtime = mtime
		}
		fo.Owners[owner] += disk
	}
	if len(idx.folders) == 0 {
		return nil, fmt.Errorf("no rollup rows in %s", path)
	}

	idx.link()
	return idx, nil
}

// link derives the child lists and picks the browse root.
func (idx *Index) link() {
	paths := make([]string, 0, len(idx.folders))
	for p := range idx.folders {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	idx.Root = paths[0]

	for _, p := range paths {
		if p == idx.Root {
			continue
		}
		parent := parentPath(p)
		if fo := idx.folders[parent]; fo != nil {
			fo.Children = append(fo.Children, p)
		}
	}
}

// Folder returns the rollup for path, or nil.
func (idx *Index) Folder(path string) *Folder {
	return idx.folders[path]
}

// TopOwners returns up to n owners of the folder, largest disk first.
func (f *Folder) TopOwners(n int) []string {
	owners := make([]string, 0, len(f.Owners))
	for o := range f.Owners {
		owners = append(owners, o)
	}
	sort.Slice(owners, func(i, j int) bool {
		if f.Owners[owners[i]] != f.Owners[owners[j]] {
			return f.Owners[owners[i]] > f.Owners[owners[j]]
		}
		return owners[i] < owners[j]
	})
	if len(owners) > n {
		owners = owners[:n]
	}
	return owners
}

func parentPath(p string) string {
	i := strings.LastIndexByte(p, '/')
	switch {
	case i < 0:
		return ""
	case i == 0:
		return "/"
	default:
		return p[:i]
	}
}

func baseName(p string) string {
	if p == "/" {
		return "/"
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
