package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/engine"
)

// Update handles messages and updates state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.PasteMsg:
		m.edit(engine.Range{Start: m.cursor, End: m.cursor}, msg.Content)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// handleKeyPress processes key events.
func (m Model) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Keystroke() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		m.edit(engine.Range{Start: m.cursor, End: m.cursor}, "\n")

	case "backspace", "ctrl+h":
		if pos := m.prevEditable(m.cursor); pos >= 0 {
			m.edit(engine.Range{Start: pos, End: pos + 1}, "")
		}

	case "delete":
		if m.cursor < m.session.Buffer().Len() {
			m.edit(engine.Range{Start: m.cursor, End: m.cursor + 1}, "")
		}

	case "tab":
		m.command(func() error {
			return m.session.Indent(engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "shift+tab":
		m.command(func() error {
			return m.session.Outdent(engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+1", "ctrl+2", "ctrl+3":
		level := int(msg.Keystroke()[len(msg.Keystroke())-1] - '0')
		m.command(func() error {
			return m.session.ToHeading(level, engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+p":
		m.command(func() error {
			return m.session.ToParagraph(engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+q":
		m.command(func() error {
			return m.session.ToBlockquote(engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+l":
		m.command(func() error {
			return m.session.ToList(false, engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+o":
		m.command(func() error {
			return m.session.ToList(true, engine.Range{Start: m.cursor, End: m.cursor})
		})

	case "ctrl+s":
		m.saveSnapshot()

	case "ctrl+r":
		m.loadSnapshot()

	case "left":
		m.cursor = m.skipMarkersLeft(m.cursor - 1)

	case "right":
		m.cursor = m.skipMarkersRight(m.cursor + 1)

	case "up":
		m.moveLine(-1)

	case "down":
		m.moveLine(1)

	case "home", "ctrl+a":
		ls, _ := m.lineBounds(m.cursor)
		m.cursor = m.skipMarkersRight(ls)

	case "end", "ctrl+e":
		_, le := m.lineBounds(m.cursor)
		m.cursor = le

	default:
		if msg.Text != "" {
			m.edit(engine.Range{Start: m.cursor, End: m.cursor}, msg.Text)
		}
	}
	return m, nil
}

// edit funnels a proposed change through the engine and tracks the cursor by
// the buffer length delta, which equals the inserted/removed rune count at
// the edit point for every edit class.
func (m *Model) edit(r engine.Range, text string) {
	before := m.session.Buffer().Len()
	if _, err := m.session.BufferWillChange(r, text); err != nil {
		m.status = "error: " + err.Error()
		m.log.Warn().Err(err).Int("start", r.Start).Int("end", r.End).Msg("edit rejected")
		return
	}
	m.status = ""
	m.cursor = r.Start + (m.session.Buffer().Len() - before) + (r.End - r.Start)
	m.clampCursor()
}

func (m *Model) command(fn func() error) {
	if err := fn(); err != nil {
		m.status = "error: " + err.Error()
		return
	}
	m.status = ""
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if n := m.session.Buffer().Len(); m.cursor > n {
		m.cursor = n
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// prevEditable returns the position to delete on backspace: the previous
// rune, which may be a marker (the engine turns that into a dedent).
func (m *Model) prevEditable(pos int) int {
	if pos <= 0 {
		return -1
	}
	return pos - 1
}

// skipMarkersLeft clamps pos and steps over marker runes leftward so the
// caret never lands inside an item prefix.
func (m *Model) skipMarkersLeft(pos int) int {
	buf := m.session.Buffer()
	if pos < 0 {
		return 0
	}
	for pos > 0 {
		r, ok := buf.RuneAt(pos)
		if !ok || r != buffer.Marker {
			break
		}
		pos--
	}
	return pos
}

func (m *Model) skipMarkersRight(pos int) int {
	buf := m.session.Buffer()
	if pos > buf.Len() {
		return buf.Len()
	}
	for pos < buf.Len() {
		r, ok := buf.RuneAt(pos)
		if !ok || r != buffer.Marker {
			break
		}
		pos++
	}
	return pos
}

// lineBounds returns the bounds of the line containing pos, newline excluded.
func (m *Model) lineBounds(pos int) (int, int) {
	text := []rune(m.session.Text())
	if pos > len(text) {
		pos = len(text)
	}
	start := pos
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end := pos
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start, end
}

// moveLine moves the caret delta lines vertically, preserving the column
// where possible.
func (m *Model) moveLine(delta int) {
	text := m.session.Text()
	lines := strings.Split(text, "\n")
	row, col := 0, m.cursor
	for row < len(lines)-1 && col > len([]rune(lines[row])) {
		col -= len([]rune(lines[row])) + 1
		row++
	}
	row += delta
	if row < 0 || row >= len(lines) {
		return
	}
	pos := 0
	for i := 0; i < row; i++ {
		pos += len([]rune(lines[i])) + 1
	}
	if n := len([]rune(lines[row])); col > n {
		col = n
	}
	m.cursor = m.skipMarkersRight(pos + col)
}

func (m *Model) saveSnapshot() {
	if m.store == nil {
		m.status = "no snapshot store"
		return
	}
	if err := m.store.Save(m.docName, m.session.Document()); err != nil {
		m.status = "error: " + err.Error()
		m.log.Error().Err(err).Str("name", m.docName).Msg("snapshot save failed")
		return
	}
	m.status = fmt.Sprintf("saved %q", m.docName)
}

func (m *Model) loadSnapshot() {
	if m.store == nil {
		m.status = "no snapshot store"
		return
	}
	d, err := m.store.Load(m.docName)
	if err != nil {
		m.status = "error: " + err.Error()
		m.log.Error().Err(err).Str("name", m.docName).Msg("snapshot load failed")
		return
	}
	if d == nil {
		m.status = fmt.Sprintf("no snapshot %q", m.docName)
		return
	}
	m.session.LoadDocument(d)
	m.cursor = 0
	m.status = fmt.Sprintf("loaded %q", m.docName)
}
