package tui

import (
	"github.com/charmbracelet/lipgloss"

	"pkt.systems/hackterm/schema"
)

type palette struct {
	StatusBG lipgloss.Color
	Accent   lipgloss.Color
	Muted    lipgloss.Color
	Text     lipgloss.Color
	Welcome  lipgloss.Color
	Info     lipgloss.Color
	Success  lipgloss.Color
	Alert    lipgloss.Color
	Notice   lipgloss.Color
	Uptime   lipgloss.Color
	Footer   lipgloss.Color
	Matrix   lipgloss.Color
}

var palettes = map[schema.ThemeName]palette{
	"phosphor": {
		StatusBG: "#020617",
		Accent:   "#22d3ee",
		Muted:    "#9ca3af",
		Text:     "#d1d5db",
		Welcome:  "#4ade80",
		Info:     "#facc15",
		Success:  "#4ade80",
		Alert:    "#f87171",
		Notice:   "#60a5fa",
		Uptime:   "#c084fc",
		Footer:   "#6b7280",
		Matrix:   "#22c55e",
	},
	"amber": {
		StatusBG: "#1c1204",
		Accent:   "#fbbf24",
		Muted:    "#a88454",
		Text:     "#e7d2aa",
		Welcome:  "#fb923c",
		Info:     "#fef08a",
		Success:  "#bef264",
		Alert:    "#f87171",
		Notice:   "#fde047",
		Uptime:   "#fdba74",
		Footer:   "#786240",
		Matrix:   "#22c55e",
	},
	"ice": {
		StatusBG: "#081426",
		Accent:   "#93c5fd",
		Muted:    "#94a3b8",
		Text:     "#e2e8f0",
		Welcome:  "#a5f3fc",
		Info:     "#e0e7ff",
		Success:  "#86efac",
		Alert:    "#fda4af",
		Notice:   "#7dd3fc",
		Uptime:   "#c4b5fd",
		Footer:   "#64748b",
		Matrix:   "#22c55e",
	},
}

// styles holds the lipgloss styles for one theme.
type styles struct {
	palette  palette
	status   lipgloss.Style
	security lipgloss.Style
	firewall lipgloss.Style
	uptime   lipgloss.Style
	clock    lipgloss.Style
	title    lipgloss.Style
	tagline  lipgloss.Style
	command  lipgloss.Style
	welcome  lipgloss.Style
	info     lipgloss.Style
	text     lipgloss.Style
	success  lipgloss.Style
	alert    lipgloss.Style
	notice   lipgloss.Style
	prompt   lipgloss.Style
	hint     lipgloss.Style
	footer   lipgloss.Style
}

func newStyles(name schema.ThemeName, matrix bool) styles {
	p, ok := palettes[name]
	if !ok {
		p = palettes[schema.DefaultTheme]
	}
	if matrix {
		green := p.Matrix
		p = palette{
			StatusBG: "#000000",
			Accent:   green,
			Muted:    "#15803d",
			Text:     green,
			Welcome:  green,
			Info:     green,
			Success:  green,
			Alert:    p.Alert,
			Notice:   green,
			Uptime:   green,
			Footer:   "#15803d",
			Matrix:   green,
		}
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	return styles{
		palette:  p,
		status:   lipgloss.NewStyle().Background(p.StatusBG),
		security: fg(p.Success).Background(p.StatusBG),
		firewall: fg(p.Accent).Background(p.StatusBG),
		uptime:   fg(p.Uptime).Background(p.StatusBG),
		clock:    fg(p.Muted).Background(p.StatusBG),
		title:    fg(p.Accent).Bold(true),
		tagline:  fg(p.Muted),
		command:  fg(p.Accent).Bold(true),
		welcome:  fg(p.Welcome),
		info:     fg(p.Info),
		text:     fg(p.Text),
		success:  fg(p.Success),
		alert:    fg(p.Alert),
		notice:   fg(p.Notice),
		prompt:   fg(p.Accent).Bold(true),
		hint:     fg(p.Accent).Faint(true),
		footer:   fg(p.Footer),
	}
}

func (s styles) line(line schema.TranscriptLine) lipgloss.Style {
	switch line.Kind {
	case schema.LineCommand:
		return s.command
	case schema.LineWelcome:
		return s.welcome
	case schema.LineInfo:
		return s.info
	}
	switch line.Tone() {
	case schema.ToneSuccess:
		return s.success
	case schema.ToneAlert:
		return s.alert
	case schema.ToneNotice:
		return s.notice
	default:
		return s.text
	}
}
