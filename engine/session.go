// Package engine keeps a hierarchical document tree and its flat attributed
// buffer consistent under incremental character-level edits.
//
// The engine never reparses the whole document on a keystroke: every edit is
// classified by the run attributes at the edit position, the buffer's text
// and attributes are rewritten locally, and only the top-level blocks whose
// ranges changed are rebuilt from the buffer (see reconstruct.go).
//
// Everything runs on one logical editing thread. Mutating methods complete
// fully before returning, so attribute queries immediately after an edit
// observe the consistent post-edit state; no locking is involved.
package engine

import (
	"github.com/rs/zerolog"

	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// Range is a buffer position range in rune offsets, End exclusive.
type Range struct {
	Start, End int
}

// Session owns one buffer and one document and keeps them in sync. It is the
// engine's external interface: rendering layers query attributes and ranges,
// input layers funnel every proposed mutation through BufferWillChange, and
// persistence layers round-trip through Document/LoadDocument.
type Session struct {
	buf  *buffer.Buffer
	doc  *document.Document
	ids  *document.IDSource
	opts Options
	log  zerolog.Logger
}

// NewSession creates an empty editing session. A nil ids falls back to a
// fresh source.
func NewSession(ids *document.IDSource, opts Options, logger zerolog.Logger) *Session {
	if ids == nil {
		ids = document.NewIDSource()
	}
	return &Session{
		buf:  buffer.New(),
		doc:  document.New(),
		ids:  ids,
		opts: opts,
		log:  logger,
	}
}

// Document returns the current tree.
func (s *Session) Document() *document.Document { return s.doc }

// Buffer returns the live flat buffer. Callers on the editing thread may
// read it directly; it must not be mutated behind the engine's back.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// Text returns the buffer text, marker characters included.
func (s *Session) Text() string { return s.buf.String() }

// AttributesAt returns the attribute set of the character at pos.
func (s *Session) AttributesAt(pos int) (buffer.Attributes, bool) {
	return s.buf.AttributesAt(pos)
}

// BlockRanges returns the attribute-uniform buffer ranges whose attributes
// satisfy pred, for decoration layers placing marker glyphs.
func (s *Session) BlockRanges(pred func(buffer.Attributes) bool) []buffer.Span {
	return s.buf.Ranges(pred)
}

// LoadDocument adopts a whole tree and performs a full projection. The
// session takes ownership of the document.
func (s *Session) LoadDocument(d *document.Document) {
	if d == nil {
		d = document.New()
	}
	d.Reindex()
	s.ids.Advance(d.MaxID())
	s.doc = d
	s.buf = projectDocument(d, s.ids, s.opts)
}
