// Package tui renders an editing session in the terminal and funnels
// keystrokes into the engine.
package tui

import (
	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/xonecas/inkline/engine"
	"github.com/xonecas/inkline/store"
)

// Model is the application model.
type Model struct {
	session *engine.Session
	store   *store.Store
	docName string

	width  int
	height int
	cursor int // rune offset into the buffer
	scroll int // first visible line

	status string
	styles Styles
	log    zerolog.Logger
}

// New creates the TUI model around an editing session. store may be nil when
// persistence is disabled.
func New(session *engine.Session, st *store.Store, docName string, logger zerolog.Logger) Model {
	return Model{
		session: session,
		store:   st,
		docName: docName,
		styles:  DefaultStyles(),
		log:     logger,
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return nil
}
