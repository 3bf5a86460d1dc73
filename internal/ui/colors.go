package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/drivemig/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	accent lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		accent: NewBold(t),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// RenderAction colors a planned action for terminal display.
func RenderAction(action models.Action) string {
	switch action {
	case models.ActionCopy:
		return styles.ok.Render(string(action))
	case models.ActionRelink:
		return styles.accent.Render(string(action))
	case models.ActionDelete:
		return styles.err.Render(string(action))
	case models.ActionReview:
		return styles.warn.Render(string(action))
	default:
		return styles.help.Render(string(action))
	}
}

// RenderStatus colors a task status for terminal display.
func RenderStatus(status models.Status) string {
	switch status {
	case models.StatusCompleted:
		return styles.ok.Render(string(status))
	case models.StatusFailed:
		return styles.err.Render(string(status))
	case models.StatusSkipped:
		return styles.help.Render(string(status))
	default:
		return styles.warn.Render(string(status))
	}
}
