package reader

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/brogergvhs/endless/internal/prefs"
)

type Theme struct {
	Name       string
	Dark       bool
	Background lipgloss.Color
	Foreground lipgloss.Color
}

// Themes are the chapter background presets, dark ones first.
var Themes = []Theme{
	{Name: "Dark Gray", Dark: true, Background: "#1e1e1e", Foreground: "#ffffff"},
	{Name: "Pure Black", Dark: true, Background: "#000000", Foreground: "#f0f0f0"},
	{Name: "Dark Blue Gray", Dark: true, Background: "#292a2d", Foreground: "#d4d4d4"},
	{Name: "Charcoal Gray", Dark: true, Background: "#333333", Foreground: "#ffffff"},
	{Name: "Light Gray", Background: "#f9f9f9", Foreground: "#333333"},
	{Name: "Pure White", Background: "#ffffff", Foreground: "#212121"},
	{Name: "Alice Blue", Background: "#f0f8ff", Foreground: "#444444"},
	{Name: "Linen", Background: "#faf0e6", Foreground: "#555555"},
	{Name: "Lightest Gray", Background: "#f5f5f5", Foreground: "#3a3a3a"},
}

// LineSpacings are the selectable rows per text line.
var LineSpacings = []int{1, 2}

func themeIndex(name string) int {
	for i, th := range Themes {
		if th.Name == name {
			return i
		}
	}
	return 0
}

func spacingIndex(n int) int {
	for i, s := range LineSpacings {
		if s == n {
			return i
		}
	}
	return 0
}

type appearance struct {
	theme   int
	spacing int
}

func appearanceFrom(a prefs.Appearance) appearance {
	return appearance{theme: themeIndex(a.Theme), spacing: spacingIndex(a.LineSpacing)}
}

func (a appearance) Theme() Theme { return Themes[a.theme] }

func (a appearance) LineSpacing() int { return LineSpacings[a.spacing] }

func (a appearance) prefs() prefs.Appearance {
	return prefs.Appearance{Theme: a.Theme().Name, LineSpacing: a.LineSpacing()}
}

func (a appearance) nextTheme() appearance {
	a.theme = (a.theme + 1) % len(Themes)
	return a
}

func (a appearance) nextSpacing() appearance {
	a.spacing = (a.spacing + 1) % len(LineSpacings)
	return a
}
