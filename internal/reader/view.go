package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")

	th := m.look.Theme()
	row := textRow(th).Width(max(0, m.width))
	spacing := m.look.LineSpacing()

	var rows []string
	for _, l := range m.sess.Page().Visible() {
		rows = append(rows, renderLine(l, th))
		for i := 1; i < spacing; i++ {
			rows = append(rows, "")
		}
	}
	for i := 0; i < m.bodyHeight(); i++ {
		text := ""
		if i < len(rows) {
			text = rows[i]
		}
		b.WriteString(row.Render(text) + "\n")
	}

	b.WriteString(m.renderBanner() + "\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func renderLine(l page.Line, th Theme) string {
	switch l.Kind {
	case page.LineHeading:
		return heading.Background(th.Background).Render(l.Text)
	case page.LineLink:
		return link.Background(th.Background).Render(l.Text)
	case page.LineBlank:
		return ""
	default:
		return textRow(th).Render(l.Text)
	}
}

func (m *Model) renderHeader() string {
	url := m.sess.Page().URL()
	vp := m.sess.Page().Viewport()

	pct := 100
	if limit := vp.Total - vp.Height; limit > 0 {
		pct = vp.ScrollY * 100 / limit
	}
	right := fmt.Sprintf(" %d%%", pct)

	// Keep the URL's tail: the chapter slug is the useful part.
	room := m.width - runewidth.StringWidth(right) - 2
	if room > 1 && runewidth.StringWidth(url) > room {
		url = "…" + tail(url, room-1)
	}
	return titleBar.Width(max(0, m.width)).Render(url + right)
}

// tail returns the widest suffix of s that fits in width cells.
func tail(s string, width int) string {
	r := []rune(s)
	w := 0
	i := len(r)
	for i > 0 {
		cw := runewidth.RuneWidth(r[i-1])
		if w+cw > width {
			break
		}
		w += cw
		i--
	}
	return string(r[i:])
}

func (m *Model) renderBanner() string {
	n := m.sess.Notices()
	if m.lastErr != nil {
		return bannerStyle(notify.Error).Render(m.lastErr.Error())
	}
	if n == nil {
		return ""
	}
	active := n.Active()
	if len(active) == 0 {
		return ""
	}
	last := active[len(active)-1]
	return bannerStyle(last.Variant).Render(last.Message)
}

func (m *Model) renderFooter() string {
	state := badgeOff.Render("auto loader off")
	if m.autoLoad {
		state = badgeOn.Render("auto loader on")
	}
	look := fmt.Sprintf("%s · %dx", m.look.Theme().Name, m.look.LineSpacing())
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statusBar.Render(state),
		statusBar.Render(look),
		statusBar.Render(m.help.View(m.keys)),
	)
}
