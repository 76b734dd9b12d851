package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/tess"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ViolationListModel - Interactive violation browser
// =============================================================================

// ViolationListModel is the bubbletea model for browsing clearance
// violations. Arrow keys move the cursor; the detail pane below the table
// follows it.
type ViolationListModel struct {
	Violations []drc.Violation
	Cursor     int
	Height     int
	Offset     int

	nets map[tess.ObjectID]string
}

// NewViolationListModel creates a browser over the given violations.
// The layers provide the object-to-net lookup for the detail pane.
func NewViolationListModel(violations []drc.Violation, layers []*tess.LayerGeometry) ViolationListModel {
	nets := make(map[tess.ObjectID]string)
	for _, lg := range layers {
		for _, obj := range lg.Objects {
			nets[obj.ID] = obj.Net
		}
	}
	return ViolationListModel{
		Violations: violations,
		Height:     15,
		nets:       nets,
	}
}

func (m ViolationListModel) Init() tea.Cmd {
	return nil
}

func (m ViolationListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Violations)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ViolationListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Clearance Violations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Violations) {
		end = len(m.Violations)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		v := m.Violations[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			v.LayerID,
			m.netOf(v.ObjectA),
			m.netOf(v.ObjectB),
			fmt.Sprintf("%.3f mm", v.DistanceMM),
			fmt.Sprintf("%.3f mm", v.ClearanceMM),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layer", "Net A", "Net B", "Distance", "Required").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if m.Cursor < len(m.Violations) {
		v := m.Violations[m.Cursor]
		b.WriteString(StyleDim.Render("  objects: ") + StyleValue.Render(fmt.Sprintf("%s  /  %s", v.ObjectA, v.ObjectB)))
		b.WriteString("\n")
		b.WriteString(StyleDim.Render("  at:      ") + StyleValue.Render(fmt.Sprintf("(%.3f, %.3f) mm", v.Point.X, v.Point.Y)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Violations))))

	return b.String()
}

func (m ViolationListModel) netOf(id tess.ObjectID) string {
	if net := m.nets[id]; net != "" {
		return net
	}
	return "—"
}
