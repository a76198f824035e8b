package ui

import (
	"github.com/nconklindev/leadmap/internal/mapper"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent    = lipgloss.Color("#2EC4B6")
	highlight = lipgloss.Color("#7BDFF2")
	muted     = lipgloss.Color("#6B7280")
	danger    = lipgloss.Color("#FF4757")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	UnmappedStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	badgeStyle = lipgloss.NewStyle().Padding(0, 1)
)

var badgeColors = map[mapper.Source]lipgloss.Color{
	mapper.SourceAlias:    lipgloss.Color("#2EC4B6"),
	mapper.SourceInferred: lipgloss.Color("#FFB84D"),
	mapper.SourceFallback: lipgloss.Color("#FF8C42"),
	mapper.SourceManual:   lipgloss.Color("#7BDFF2"),
}

// sourceBadge labels how a field got its column. Unmapped fields get no badge.
func sourceBadge(src mapper.Source) string {
	color, ok := badgeColors[src]
	if !ok {
		return ""
	}
	return badgeStyle.Foreground(color).Render("[" + src.String() + "]")
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#0B132B")).
		Background(accent).
		Bold(false)
	return s
}
