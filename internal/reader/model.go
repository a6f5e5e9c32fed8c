// Package reader is the terminal front end: it draws the page's viewport
// and turns keys into scrolling, which drives the auto loader.
package reader

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/prefs"
)

// chromeRows are the rows not used by page content: header, notice
// banner and footer.
const chromeRows = 3

type Session interface {
	Page() *page.Page
	Notices() *notify.Center
	AutoLoad() bool
	Toggle() (bool, error)
	Appearance() prefs.Appearance
	SetAppearance(a prefs.Appearance) error
}

type pageChangedMsg struct{}

type noticesChangedMsg struct{}

type toggledMsg struct {
	on  bool
	err error
}

type Model struct {
	sess Session
	keys KeyMap
	help help.Model

	pageCh       <-chan struct{}
	stopPage     func()
	noticeCh     <-chan struct{}
	stopNotices  func()
	autoLoad     bool
	look         appearance
	width        int
	height       int
	quitting     bool
	lastErr      error
	showFullHelp bool
}

func New(s Session) *Model {
	m := &Model{
		sess:     s,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		autoLoad: s.AutoLoad(),
		look:     appearanceFrom(s.Appearance()),
		width:    80,
		height:   24,
	}
	m.pageCh, m.stopPage = s.Page().Subscribe()
	if n := s.Notices(); n != nil {
		m.noticeCh, m.stopNotices = n.Subscribe()
	}
	return m
}

func wait(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		wait(m.pageCh, pageChangedMsg{}),
		wait(m.noticeCh, noticesChangedMsg{}),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.sess.Page().Resize(msg.Width, m.pageRows())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageChangedMsg:
		return m, wait(m.pageCh, pageChangedMsg{})

	case noticesChangedMsg:
		return m, wait(m.noticeCh, noticesChangedMsg{})

	case toggledMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.autoLoad = msg.on
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.sess.Page()
	half := max(1, m.pageRows()/2)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		p.ScrollBy(1)
	case key.Matches(msg, m.keys.Up):
		p.ScrollBy(-1)
	case key.Matches(msg, m.keys.PageDown):
		p.ScrollBy(half)
	case key.Matches(msg, m.keys.PageUp):
		p.ScrollBy(-half)
	case key.Matches(msg, m.keys.Top):
		p.ScrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		p.ScrollTo(p.Viewport().Total)
	case key.Matches(msg, m.keys.AutoLoad):
		return m, m.toggle()
	case key.Matches(msg, m.keys.Theme):
		m.setAppearance(m.look.nextTheme())
	case key.Matches(msg, m.keys.Spacing):
		m.setAppearance(m.look.nextSpacing())
		p.Resize(m.width, m.pageRows())
	case key.Matches(msg, m.keys.Dismiss):
		if n := m.sess.Notices(); n != nil {
			n.DismissAll()
		}
	case key.Matches(msg, m.keys.Help):
		m.showFullHelp = !m.showFullHelp
		m.help.ShowAll = m.showFullHelp
	}
	return m, nil
}

func (m *Model) toggle() tea.Cmd {
	s := m.sess
	return func() tea.Msg {
		on, err := s.Toggle()
		return toggledMsg{on: on, err: err}
	}
}

// setAppearance applies a and saves it. A failed save keeps a for this
// session.
func (m *Model) setAppearance(a appearance) {
	m.look = a
	m.lastErr = m.sess.SetAppearance(a.prefs())
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-chromeRows)
}

// pageRows is the page's viewport height: each page line takes
// LineSpacing screen rows.
func (m *Model) pageRows() int {
	return max(1, m.bodyHeight()/m.look.LineSpacing())
}

// Close releases the page and notice subscriptions.
func (m *Model) Close() {
	if m.stopPage != nil {
		m.stopPage()
		m.stopPage = nil
	}
	if m.stopNotices != nil {
		m.stopNotices()
		m.stopNotices = nil
	}
}

// Run starts the program full screen and blocks until the reader quits.
func Run(s Session) error {
	m := New(s)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
