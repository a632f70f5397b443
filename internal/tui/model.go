package tui

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// SortColumn represents the current sort field.
type SortColumn int

const (
	SortByDisk SortColumn = iota
	SortByFiles
	SortByName
	SortByAge
)

func (s SortColumn) String() string {
	switch s {
	case SortByFiles:
		return "files"
	case SortByName:
		return "name"
	case SortByAge:
		return "age"
	default:
		return "disk"
	}
}

// Model holds the TUI state: one aggregate index, one current folder.
type Model struct {
	idx         *Index
	currentPath string
	rows        []*Folder
	cursor      int
	sort        SortColumn
	width       int
	height      int
}

// NewModel creates a TUI model rooted at the index root.
func NewModel(idx *Index) *Model {
	m := &Model{idx: idx, currentPath: idx.Root, sort: SortByDisk}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// reload recomputes the child rows of the current folder in sort order.
func (m *Model) reload() {
	cur := m.idx.Folder(m.currentPath)
	m.rows = m.rows[:0]
	if cur == nil {
		return
	}
	for _, child := range cur.Children {
		if fo := m.idx.Folder(child); fo != nil {
			m.rows = append(m.rows, fo)
		}
	}
	sort.Slice(m.rows, func(i, j int) bool {
		a, b := m.rows[i], m.rows[j]
		switch m.sort {
		case SortByFiles:
			if a.Files != b.Files {
				return a.Files > b.Files
			}
		case SortByName:
			return a.Path < b.Path
		case SortByAge:
			if a.OldDisk != b.OldDisk {
				return a.OldDisk > b.OldDisk
			}
		default:
			if a.Disk != b.Disk {
				return a.Disk > b.Disk
			}
		}
		return a.Path < b.Path
	})
	if m.cursor >= len(m.rows) {
		m.cursor = 0
	}
}

func (m *Model) helpLine() string {
	return "↑/↓ move | Enter: open | Backspace: up | d/f/n/a: sort | q: quit"
}
