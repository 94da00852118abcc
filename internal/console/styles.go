package console

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	dim      lipgloss.Style
	agent    lipgloss.Style
	customer lipgloss.Style
	high     lipgloss.Style
	medium   lipgloss.Style
	low      lipgloss.Style
	overlay  lipgloss.Style
	success  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		dim: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		agent: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")),
		customer: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		high: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")),
		medium: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11")),
		low: r.NewStyle().
			Foreground(lipgloss.Color("14")),
		overlay: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		success: r.NewStyle().
			Foreground(lipgloss.Color("10")),
	}
}
