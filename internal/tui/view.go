package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("scour — rollup browser"))
	b.WriteString("\n")

	cur := m.idx.Folder(m.currentPath)
	if cur == nil {
		b.WriteString(pathStyle.Render(m.currentPath))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.helpLine()))
		return b.String()
	}

	b.WriteString(pathStyle.Render(m.currentPath))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf(
		"%s on disk | %s entries | %s stale | top owners: %s | sort: %s",
		FormatSize(cur.Disk),
		FormatCount(cur.Files),
		FormatSize(cur.OldDisk),
		strings.Join(cur.TopOwners(3), ", "),
		m.sort,
	)))
	b.WriteString("\n")

	nameWidth := m.width - 36
	if nameWidth < 20 {
		nameWidth = 20
	}
	header := fmt.Sprintf("%-*s %10s %10s %6s", nameWidth, "FOLDER", "DISK", "FILES", "STALE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	visible := m.visibleRows()
	for i, fo := range m.rows {
		if i < visible.start || i >= visible.end {
			continue
		}
		name := baseName(fo.Path)
		if len(fo.Children) > 0 {
			name += "/"
		}
		if len(name) > nameWidth {
			name = name[:nameWidth-1] + "…"
		}
		stale := "-"
		if fo.Disk > 0 {
			stale = fmt.Sprintf("%d%%", fo.OldDisk*100/fo.Disk)
		}
		line := fmt.Sprintf("%s %s %s %6s",
			lipgloss.NewStyle().Width(nameWidth).Render(dirStyle.Render(name)),
			sizeStyle.Render(FormatSize(fo.Disk)),
			countStyle.Render(FormatCount(fo.Files)),
			stale,
		)
		if i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("%-*s %10s %10s %6s",
				nameWidth, name, FormatSize(fo.Disk), FormatCount(fo.Files), stale))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(rowStyle.Render("  (no subfolders)"))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

type rowRange struct {
	start, end int
}

// visibleRows windows the row list around the cursor for small terminals.
func (m *Model) visibleRows() rowRange {
	max := m.height - 8
	if max < 5 {
		max = 5
	}
	if len(m.rows) <= max {
		return rowRange{0, len(m.rows)}
	}
	start := m.cursor - max/2
	if start < 0 {
		start = 0
	}
	end := start + max
	if end > len(m.rows) {
		end = len(m.rows)
		start = end - max
	}
	return rowRange{start, end}
}
