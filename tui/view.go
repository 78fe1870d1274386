package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// View renders the UI.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	return v
}

// viewLine is one rendered buffer line: its rune bounds and the attributes
// at its start, which drive the line's prefix glyphs.
type viewLine struct {
	start, end int
	attrs      buffer.Attributes
}

func (m Model) renderContent() string {
	if m.width == 0 {
		return ""
	}

	lines := m.bufferLines()
	contentH := m.height - 1
	if contentH < 1 {
		contentH = 1
	}

	scroll := m.scroll
	cursorRow := 0
	for i, ln := range lines {
		if m.cursor >= ln.start && m.cursor <= ln.end {
			cursorRow = i
			break
		}
	}
	if cursorRow < scroll {
		scroll = cursorRow
	}
	if cursorRow >= scroll+contentH {
		scroll = cursorRow - contentH + 1
	}

	counters := map[document.ContainerID]int{}
	prefixes := make([]string, len(lines))
	for i, ln := range lines {
		prefixes[i] = m.linePrefix(ln.attrs, counters)
	}

	var b strings.Builder
	for row := 0; row < contentH; row++ {
		idx := scroll + row
		if row > 0 {
			b.WriteByte('\n')
		}
		if idx >= len(lines) {
			continue
		}
		line := prefixes[idx] + m.renderLine(lines[idx])
		if lipgloss.Width(line) > m.width {
			line = ansi.Truncate(line, m.width, "")
		}
		b.WriteString(line)
	}

	b.WriteByte('\n')
	b.WriteString(m.statusBar())
	return b.String()
}

// bufferLines splits the buffer into lines, recording the attributes of each
// line's first character.
func (m Model) bufferLines() []viewLine {
	buf := m.session.Buffer()
	lines := []viewLine{{}}
	for pos := 0; pos < buf.Len(); pos++ {
		r, _ := buf.RuneAt(pos)
		if r == '\n' {
			lines[len(lines)-1].end = pos
			lines = append(lines, viewLine{start: pos + 1})
			continue
		}
		if ln := &lines[len(lines)-1]; pos == ln.start {
			a, _ := buf.AttributesAt(pos)
			ln.attrs = a
		}
	}
	lines[len(lines)-1].end = buf.Len()
	return lines
}

// linePrefix derives the decoration glyphs for a line from its attributes:
// quote bars, list bullets or numbers, indentation by nesting level.
func (m Model) linePrefix(a buffer.Attributes, counters map[document.ContainerID]int) string {
	switch a.Kind {
	case document.KindQuote:
		indent := ""
		if a.Meta != nil {
			indent = strings.Repeat("  ", a.Meta.Level)
		}
		return m.styles.Quote.Render("> " + indent)
	case document.KindList:
		if a.Meta == nil {
			return m.styles.Bullet.Render("  ")
		}
		indent := strings.Repeat("  ", a.Meta.Level)
		if a.Meta.Ordered {
			counters[a.Meta.Parent]++
			return m.styles.Bullet.Render(fmt.Sprintf("%s%d. ", indent, counters[a.Meta.Parent]))
		}
		return m.styles.Bullet.Render(indent + "• ")
	default:
		return ""
	}
}

// renderLine renders a line's text with inline styles, markers hidden and
// the cursor shown in reverse video.
func (m Model) renderLine(ln viewLine) string {
	buf := m.session.Buffer()
	var b strings.Builder
	cursorDrawn := false
	pending := false
	for pos := ln.start; pos < ln.end; pos++ {
		r, _ := buf.RuneAt(pos)
		a, _ := buf.AttributesAt(pos)
		if r == buffer.Marker {
			// Caret on the hidden marker shows on the next visible cell.
			pending = pending || pos == m.cursor
			continue
		}
		st := m.runeStyle(a)
		if pos == m.cursor || pending {
			st = st.Reverse(true)
			cursorDrawn = true
			pending = false
		}
		b.WriteString(st.Render(string(r)))
	}
	if !cursorDrawn && m.cursor >= ln.start && m.cursor <= ln.end {
		b.WriteString(lipgloss.NewStyle().Reverse(true).Render(" "))
	}
	return b.String()
}

func (m Model) runeStyle(a buffer.Attributes) lipgloss.Style {
	st := lipgloss.NewStyle()
	if a.Kind == document.KindHeading {
		st = m.styles.Heading
	} else if a.Kind == document.KindQuote {
		st = m.styles.Quote
	}
	if a.Style.Bold {
		st = st.Bold(true)
	}
	if a.Style.Italic {
		st = st.Italic(true)
	}
	if a.Style.Underline {
		st = st.Underline(true)
	}
	if a.Style.Color != "" {
		st = st.Foreground(lipgloss.Color(a.Style.Color))
	}
	return st
}

func (m Model) statusBar() string {
	left := fmt.Sprintf(" %s  %d blocks", m.docName, len(m.session.Document().Blocks))
	right := m.status
	style := m.styles.Status
	if strings.HasPrefix(m.status, "error:") {
		style = m.styles.StatusErr
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return m.styles.Status.Render(left) + strings.Repeat(" ", gap) + style.Render(right)
}
