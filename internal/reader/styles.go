package reader

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/brogergvhs/endless/internal/notify"
)

var (
	primary    = lipgloss.Color("#7C3AED")
	secondary  = lipgloss.Color("#06B6D4")
	success    = lipgloss.Color("#10B981")
	warning    = lipgloss.Color("#F59E0B")
	danger     = lipgloss.Color("#EF4444")
	muted      = lipgloss.Color("#6B7280")
	foreground = lipgloss.Color("#F9FAFB")

	titleBar = lipgloss.NewStyle().
		Foreground(foreground).
		Background(primary).
		Padding(0, 1).
		Bold(true)

	statusBar = lipgloss.NewStyle().
		Foreground(muted).
		Padding(0, 1)

	heading = lipgloss.NewStyle().
		Foreground(secondary).
		Bold(true)

	link = lipgloss.NewStyle().
		Foreground(secondary).
		Underline(true)

	badgeOn = lipgloss.NewStyle().
		Foreground(success).
		Bold(true)

	badgeOff = lipgloss.NewStyle().
		Foreground(muted)

	banner = lipgloss.NewStyle().
		Foreground(foreground).
		Padding(0, 1).
		Bold(true)
)

func bannerStyle(v notify.Variant) lipgloss.Style {
	switch v {
	case notify.Error:
		return banner.Background(danger)
	case notify.Warning:
		return banner.Background(warning)
	case notify.Info:
		return banner.Background(secondary)
	default:
		return banner.Background(success)
	}
}

func textRow(th Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(th.Foreground).
		Background(th.Background)
}
