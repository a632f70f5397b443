package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "enter", "right", "l":
			if m.cursor < len(m.rows) {
				m.currentPath = m.rows[m.cursor].Path
				m.cursor = 0
				m.reload()
			}

		case "backspace", "left", "h":
			if m.currentPath != m.idx.Root {
				m.currentPath = parentPath(m.currentPath)
				m.cursor = 0
				m.reload()
			}

		case "d":
			m.sort = SortByDisk
			m.reload()
		case "f":
			m.sort = SortByFiles
			m.reload()
		case "n":
			m.sort = SortByName
			m.reload()
		case "a":
			m.sort = SortByAge
			m.reload()
		}
	}
	return m, nil
}
