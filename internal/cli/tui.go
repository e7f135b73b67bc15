package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SiteListModel - Interactive sounding site selection
// =============================================================================

// SiteSelection holds the result of the site selection.
type SiteSelection struct {
	Site *field.Site
}

// SiteListModel is the bubbletea model for interactive site selection.
type SiteListModel struct {
	Sites    []field.Site
	Cursor   int
	Selected *SiteSelection
	Height   int
	Offset   int
}

// NewSiteListModel creates a new site list model.
func NewSiteListModel(sites []field.Site) SiteListModel {
	return SiteListModel{
		Sites:  sites,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m SiteListModel) Init() tea.Cmd {
	return nil
}

func (m SiteListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Sites)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			site := m.Sites[m.Cursor]
			m.Selected = &SiteSelection{Site: &site}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m SiteListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Sounding Site"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Sites) {
		end = len(m.Sites)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Sites[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			s.Code,
			s.Name,
			fmt.Sprintf("%.2f", s.Lat),
			fmt.Sprintf("%.2f", s.Lon),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Code", "Name", "Lat", "Lon").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Sites) {
				return lipgloss.NewStyle()
			}
			if actualIdx == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 || col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sites))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// loadSites reads a JSON array of sounding sites.
func loadSites(path string) ([]field.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read site list %s", path)
	}
	var sites []field.Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse site list %s", path)
	}
	if len(sites) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "site list %s is empty", path)
	}
	return sites, nil
}

// selectSite runs the interactive picker and returns the chosen site code.
// An empty string means the user quit without selecting.
func selectSite(sites []field.Site) (string, error) {
	prog := tea.NewProgram(NewSiteListModel(sites))
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("site picker: %w", err)
	}
	model, ok := final.(SiteListModel)
	if !ok || model.Selected == nil {
		return "", nil
	}
	return model.Selected.Site.Code, nil
}
