package output

import "github.com/charmbracelet/lipgloss"

//nolint:gochecknoglobals
var (
	Cyan      = lipgloss.Color("#00CED1")
	SkyBlue   = lipgloss.Color("#87CEEB")
	LightGray = lipgloss.Color("#B0B0B0")
	DimGray   = lipgloss.Color("#808080")

	Success = lipgloss.Color("#00FF88")
	Warning = lipgloss.Color("#FFD700")
	Error   = lipgloss.Color("#FF6B6B")
	Info    = lipgloss.Color("#87CEEB")
)

type styles struct {
	Logo    lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	DimCell lipgloss.Style
	Border  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Logo:    r.NewStyle().Foreground(Cyan).Bold(true),
		Header:  r.NewStyle().Foreground(Cyan).Bold(true).Padding(0, 1),
		Cell:    r.NewStyle().Padding(0, 1),
		DimCell: r.NewStyle().Foreground(LightGray).Padding(0, 1),
		Border:  r.NewStyle().Foreground(SkyBlue),
		Success: r.NewStyle().Foreground(Success),
		Warning: r.NewStyle().Foreground(Warning),
		Error:   r.NewStyle().Foreground(Error),
		Info:    r.NewStyle().Foreground(Info),
		Dim:     r.NewStyle().Foreground(DimGray),
	}
}
