package theme

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles of the directory screens.
type Theme struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Label      lipgloss.Style
	FocusLabel lipgloss.Style
	Value      lipgloss.Style
	Notice     lipgloss.Style
	Error      lipgloss.Style
	FieldError lipgloss.Style
	Faint      lipgloss.Style
	Panel      lipgloss.Style
	HelpKey    lipgloss.Style
	HelpValue  lipgloss.Style
	Table      table.Styles
}

// Default returns the palette used by the terminal UI.
func Default() Theme {
	tbl := table.DefaultStyles()
	tbl.Header = tbl.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Foreground(lipgloss.Color("111")).
		Bold(true)
	tbl.Selected = tbl.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62")).
		Bold(false)

	return Theme{
		Title:      lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Underline(true),
		Subtitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true),
		Label:      lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Width(16),
		FocusLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true).Width(16),
		Value:      lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		FieldError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).PaddingLeft(17),
		Faint:      lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		HelpKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		HelpValue: lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
		Table:     tbl,
	}
}

// Help renders key/description pairs as a single help line.
func (t Theme) Help(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if out != "" {
			out += t.Faint.Render("  •  ")
		}
		out += t.HelpKey.Render(pairs[i]) + " " + t.HelpValue.Render(pairs[i+1])
	}
	return out
}
