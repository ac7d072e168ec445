package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gradlayer/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Rows - Uniform view over layers and rank groups
// =============================================================================

// row is one band of a layout: a tree layer or an acyclic rank group.
type row struct {
	Title   string
	Kind    string
	Scale   float64
	Members []graph.Member
}

// layoutRows flattens a layout into display rows, top to bottom for trees
// and left to right for acyclic layouts.
func layoutRows(l graph.Layout) []row {
	if l.IsTree() {
		rows := make([]row, len(l.Layers))
		for i, layer := range l.Layers {
			rows[i] = row{Title: layer.Label, Kind: layer.Kind, Scale: layer.Scale, Members: layer.Members}
		}
		return rows
	}
	rows := make([]row, len(l.Groups))
	for i, g := range l.Groups {
		rows[i] = row{Title: "rank " + strconv.Itoa(g.Rank), Kind: graph.KindNode, Scale: g.Scale, Members: g.Members}
	}
	return rows
}

// =============================================================================
// LayoutModel - Interactive layout browser
// =============================================================================

// LayoutModel is the bubbletea model for browsing a layout row by row.
type LayoutModel struct {
	Layout graph.Layout
	Rows   []row
	Cursor int
	Height int
	Offset int
}

// NewLayoutModel creates a new layout browser.
func NewLayoutModel(l graph.Layout) LayoutModel {
	return LayoutModel{
		Layout: l,
		Rows:   layoutRows(l),
		Height: 10,
	}
}

func (m LayoutModel) Init() tea.Cmd {
	return nil
}

func (m LayoutModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Rows)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		// Leave room for the header and the member table.
		m.Height = max(msg.Height/3, 3)
	}
	return m, nil
}

func (m LayoutModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s layout", m.Layout.Variant)))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %d rows · h=%.3f", m.Layout.Direction, len(m.Rows), m.Layout.HorizontalScale)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty layout)"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-10s %-6s %3d members  scale %s", cursor, r.Title, r.Kind, len(r.Members), formatScale(r.Scale))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(memberTable(m.Rows[m.Cursor]))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// memberTable renders the members of one row with natural and fitted sizes.
func memberTable(r row) string {
	rows := make([][]string, len(r.Members))
	for i, mb := range r.Members {
		rows[i] = []string{
			strconv.Itoa(i),
			mb.ID,
			mb.Label,
			fmt.Sprintf("%.2f x %.2f", mb.Width, mb.Height),
			fmt.Sprintf("%.2f x %.2f", mb.Width*r.Scale, mb.Height*r.Scale),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "ID", "Label", "Natural", "Fitted").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
