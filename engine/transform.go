package engine

import (
	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// BufferWillChange is the engine's entry point for every proposed buffer
// mutation. It classifies the edit by the run attributes at the edit point,
// applies the resulting text/attribute rewrite to the buffer, and rebuilds
// every block whose range changed.
//
// The returned bool reports whether the mutation applied to the buffer was
// exactly the requested raw replacement: hosts mirroring the text (a
// platform text view) may then apply the same splice verbatim. False means
// the engine rewrote structure (markers, extra separators, conversions) and
// the host must re-read the buffer instead.
//
// A Range crossing buffer bounds, or an edit whose anchoring item/container
// cannot be resolved, is rejected with ErrMalformedEdit and mutates nothing.
func (s *Session) BufferWillChange(r Range, replacement string) (bool, error) {
	if r.Start < 0 || r.End < r.Start || r.End > s.buf.Len() {
		s.log.Warn().Int("start", r.Start).Int("end", r.End).Msg("malformed edit: range out of bounds")
		return false, ErrMalformedEdit
	}
	switch {
	case replacement == "\n" && r.Start == r.End:
		return s.insertNewline(r.Start)
	case replacement == "" && r.End == r.Start+1:
		return s.deleteOne(r.Start)
	default:
		return s.replaceVerbatim(r, replacement), nil
	}
}

// replaceVerbatim splices text with attributes inherited from the edit
// point. Covers plain typing, multi-character deletion, and paste. A caret
// insertion aimed at an item's hidden marker lands after the marker instead;
// the shifted splice is no longer the requested one and reports false.
func (s *Session) replaceVerbatim(r Range, text string) bool {
	verbatim := true
	if r.Start == r.End {
		for r.Start < s.buf.Len() {
			c, _ := s.buf.RuneAt(r.Start)
			if c != buffer.Marker {
				break
			}
			r.Start++
			r.End = r.Start
			verbatim = false
		}
	}
	touched := s.blockIDsIn(r.Start, r.End)
	attrs := s.anchorAttrs(r.Start, r.End)
	touched = appendID(touched, attrs.Block)
	s.buf.Delete(r.Start, r.End)
	s.buf.Insert(r.Start, text, attrs)
	s.syncDocument(touched...)
	return verbatim
}

// anchorAttrs picks the attributes inherited by text inserted at [start,
// end): the character before the edit unless the edit sits at a line start,
// in which case the line being edited wins. Inserting at the head of an
// item line never carries the metadata ahead of its marker.
func (s *Session) anchorAttrs(start, end int) buffer.Attributes {
	if s.buf.Len() == 0 {
		return buffer.Attributes{Kind: document.KindParagraph, Block: s.ids.NextBlock()}
	}
	if start > 0 {
		a, _ := s.buf.AttributesAt(start - 1)
		r, _ := s.buf.RuneAt(start - 1)
		if r != '\n' {
			return a
		}
		if _, be, ok := s.buf.BlockRange(a.Block); ok && start == be && end >= s.buf.Len() {
			// Typing after the trailing separator starts a fresh paragraph.
			return buffer.Attributes{Kind: document.KindParagraph, Block: s.ids.NextBlock()}
		}
	}
	pos := end
	if pos >= s.buf.Len() {
		pos = s.buf.Len() - 1
	}
	a, _ := s.buf.AttributesAt(pos)
	a.Meta = nil
	return a
}

func (s *Session) blockIDsIn(start, end int) []document.BlockID {
	var out []document.BlockID
	for _, sp := range s.buf.Spans() {
		if sp.End <= start || sp.Start >= end {
			continue
		}
		out = appendID(out, sp.Attrs.Block)
	}
	return out
}

func appendID(ids []document.BlockID, id document.BlockID) []document.BlockID {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// insertNewline handles a single newline typed at a caret.
func (s *Session) insertNewline(pos int) (bool, error) {
	if s.buf.Len() == 0 {
		id := s.ids.NextBlock()
		s.buf.Insert(0, "\n", buffer.Attributes{Kind: document.KindParagraph, Block: id})
		s.syncDocument(id)
		return true, nil
	}
	var a buffer.Attributes
	if pos > 0 {
		a, _ = s.buf.AttributesAt(pos - 1)
		if r, _ := s.buf.RuneAt(pos - 1); r == '\n' && pos < s.buf.Len() {
			a, _ = s.buf.AttributesAt(pos)
		}
	} else {
		a, _ = s.buf.AttributesAt(0)
	}

	switch a.Kind {
	case document.KindParagraph, document.KindHeading:
		return s.splitBlock(pos, a)
	default:
		if a.Meta == nil {
			// Quote body line: a fresh body line, still one logical block.
			s.buf.Insert(pos, "\n"+string(buffer.Marker), buffer.Attributes{Kind: a.Kind, Block: a.Block})
			s.syncDocument(a.Block)
			return false, nil
		}
		return s.splitItem(pos, a)
	}
}

// splitBlock splits a paragraph or heading at pos: the tail becomes a new
// block with a fresh id. A heading's tail is demoted to a paragraph;
// headings never continue past one line.
func (s *Session) splitBlock(pos int, a buffer.Attributes) (bool, error) {
	_, be, ok := s.buf.BlockRange(a.Block)
	if !ok {
		return false, ErrMalformedEdit
	}
	newID := s.ids.NextBlock()
	demote := func(at buffer.Attributes) buffer.Attributes {
		at.Block = newID
		if a.Kind == document.KindHeading {
			at.Kind = document.KindParagraph
			at.Heading = 0
			at.FontSize = 0
		}
		return at
	}
	if r, _ := s.buf.RuneAt(pos); r == '\n' && pos+1 < be {
		// An embedded newline at the caret becomes the separator itself
		// rather than gaining a second one.
		s.buf.Retag(pos, pos+1, func(at buffer.Attributes) buffer.Attributes {
			at.Heading = 0
			at.FontSize = 0
			at.Style = document.Style{}
			at.Meta = nil
			return at
		})
		s.buf.Retag(pos+1, be, demote)
		s.syncDocument(a.Block, newID)
		return false, nil
	}
	if pos < be {
		s.buf.Retag(pos, be, demote)
	}
	s.buf.Insert(pos, "\n", buffer.Attributes{Kind: a.Kind, Block: a.Block})
	s.syncDocument(a.Block, newID)
	return true, nil
}

// splitItem splits a list/quote item at pos. The head keeps the original
// item id; the tail becomes a sibling item with a fresh id at the same
// level, order, and parent. A caret immediately after the marker degenerates
// into marker removal (dedent/merge) instead.
func (s *Session) splitItem(pos int, a buffer.Attributes) (bool, error) {
	is, ie, ok := s.buf.ItemRange(a.Meta.ItemID)
	if !ok {
		s.log.Warn().Str("item", a.Meta.ItemID).Msg("malformed edit: unknown item id")
		return false, ErrMalformedEdit
	}
	if pos <= is+1 {
		ma, _ := s.buf.AttributesAt(is)
		return false, s.removeMarker(is, ma)
	}
	old := a.Meta.ItemID
	newMeta := &buffer.ItemMeta{
		ItemID:  s.ids.NextItem(),
		Level:   a.Meta.Level,
		Ordered: a.Meta.Ordered,
		Parent:  a.Meta.Parent,
	}
	if pos < ie {
		s.buf.Retag(pos, ie, func(at buffer.Attributes) buffer.Attributes {
			if at.Meta != nil && at.Meta.ItemID == old {
				at.Meta = newMeta
			}
			return at
		})
	}
	s.buf.Insert(pos, "\n", buffer.Attributes{Kind: a.Kind, Block: a.Block})
	s.buf.Insert(pos+1, string(buffer.Marker), buffer.Attributes{Kind: a.Kind, Block: a.Block, Meta: newMeta})
	s.syncDocument(a.Block)
	return false, nil
}

// deleteOne handles a single-character backspace/delete.
func (s *Session) deleteOne(pos int) (bool, error) {
	r, ok := s.buf.RuneAt(pos)
	if !ok {
		return false, ErrMalformedEdit
	}
	a, _ := s.buf.AttributesAt(pos)
	switch {
	case r == buffer.Marker:
		return false, s.removeMarker(pos, a)
	case r == '\n':
		if pos == s.buf.Len()-1 {
			// Dangling separator at the very end: just drop it.
			s.buf.Delete(pos, pos+1)
			s.syncDocument(a.Block)
			return true, nil
		}
		b, _ := s.buf.AttributesAt(pos + 1)
		if b.Block != a.Block {
			return s.mergeBlocks(pos, a, b)
		}
		if nr, _ := s.buf.RuneAt(pos + 1); nr == buffer.Marker {
			// Joining two item lines: same outcome as removing the marker.
			return false, s.removeMarker(pos+1, b)
		}
		s.buf.Delete(pos, pos+1)
		s.syncDocument(a.Block)
		return true, nil
	default:
		s.buf.Delete(pos, pos+1)
		s.syncDocument(a.Block)
		return true, nil
	}
}

// mergeBlocks deletes the separator at pos and folds the following block
// into the current one, adopting the current block's id and type.
func (s *Session) mergeBlocks(pos int, a, b buffer.Attributes) (bool, error) {
	nbs, nbe, ok := s.buf.BlockRange(b.Block)
	if !ok {
		return false, ErrMalformedEdit
	}
	abs, _, _ := s.buf.BlockRange(a.Block)
	head, _ := s.buf.AttributesAt(abs)
	adoptMeta := head.Kind == document.KindQuote || head.Kind == document.KindList
	s.buf.Retag(nbs, nbe, func(at buffer.Attributes) buffer.Attributes {
		at.Block = head.Block
		at.Kind = head.Kind
		at.Heading = head.Heading
		at.FontSize = head.FontSize
		if !adoptMeta {
			at.Meta = nil
		}
		return at
	})
	stripped := 0
	if !adoptMeta {
		stripped = s.stripMarkers(nbs, nbe)
	}
	s.buf.Delete(pos, pos+1)
	s.syncDocument(a.Block, b.Block)
	return stripped == 0, nil
}

// removeMarker implements the designated dedent/merge trigger: backspace
// over an item's zero-width marker.
func (s *Session) removeMarker(pos int, a buffer.Attributes) error {
	meta := a.Meta
	if meta == nil {
		// Quote body line: merge with the previous line of the same block,
		// or just shed the marker at a block boundary.
		if pos > 0 {
			if p, _ := s.buf.AttributesAt(pos - 1); p.Block == a.Block {
				s.buf.Delete(pos-1, pos+1)
				s.syncDocument(a.Block)
				return nil
			}
		}
		s.buf.Delete(pos, pos+1)
		s.syncDocument(a.Block)
		return nil
	}
	if meta.Level > 0 {
		return s.dedentItem(a)
	}
	if a.Kind == document.KindQuote {
		return s.foldQuoteItem(a)
	}
	return s.detachListItem(a, true)
}

// dedentItem retags an item one level shallower, reparenting it to its
// container's parent. The ordered flag is inherited from the new parent.
func (s *Session) dedentItem(a buffer.Attributes) error {
	meta := a.Meta
	is, ie, ok := s.buf.ItemRange(meta.ItemID)
	if !ok {
		s.log.Warn().Str("item", meta.ItemID).Msg("malformed edit: unknown item id")
		return ErrMalformedEdit
	}
	parent := s.doc.Container(meta.Parent)
	if parent == nil {
		s.log.Warn().Int64("container", int64(meta.Parent)).Msg("malformed edit: unknown container id")
		return ErrMalformedEdit
	}
	grandID := parent.ParentID
	if grandID == 0 {
		// Parent already anchors at the block root; level disagrees with the
		// container chain, so clamp there.
		grandID = parent.ID
	}
	grand := s.doc.Container(grandID)
	if grand == nil {
		s.log.Warn().Int64("container", int64(grandID)).Msg("malformed edit: unknown container id")
		return ErrMalformedEdit
	}
	newMeta := &buffer.ItemMeta{
		ItemID:  meta.ItemID,
		Level:   meta.Level - 1,
		Ordered: grand.Ordered,
		Parent:  grandID,
	}
	old := meta.ItemID
	s.buf.Retag(is, ie, func(at buffer.Attributes) buffer.Attributes {
		if at.Meta != nil && at.Meta.ItemID == old {
			at.Meta = newMeta
		}
		return at
	})
	s.syncDocument(a.Block)
	return nil
}

// foldQuoteItem merges a level-0 quote item back into the quote body.
// Dedenting never leaves block-quote mode; only lists have a level-0 floor
// that converts to a paragraph.
func (s *Session) foldQuoteItem(a buffer.Attributes) error {
	meta := a.Meta
	is, ie, ok := s.buf.ItemRange(meta.ItemID)
	if !ok {
		s.log.Warn().Str("item", meta.ItemID).Msg("malformed edit: unknown item id")
		return ErrMalformedEdit
	}
	s.buf.Retag(is, ie, func(at buffer.Attributes) buffer.Attributes {
		at.Meta = nil
		return at
	})
	if is > 0 {
		if p, _ := s.buf.AttributesAt(is - 1); p.Block == a.Block {
			// Splice onto the previous line.
			s.buf.Delete(is-1, is+1)
		}
	}
	s.syncDocument(a.Block)
	return nil
}

// detachListItem handles marker removal on a level-0 list item.
// wholeBlockAtStart selects the buffer-start shortcut: the entire block is
// converted to one plain paragraph.
func (s *Session) detachListItem(a buffer.Attributes, wholeBlockAtStart bool) error {
	meta := a.Meta
	is, ie, ok := s.buf.ItemRange(meta.ItemID)
	if !ok {
		s.log.Warn().Str("item", meta.ItemID).Msg("malformed edit: unknown item id")
		return ErrMalformedEdit
	}
	bs, be, _ := s.buf.BlockRange(a.Block)

	if is == 0 && wholeBlockAtStart && ie >= be {
		// Buffer start and the item is the whole block: no sibling anywhere,
		// so the block sheds all list semantics and becomes one paragraph.
		newID := s.ids.NextBlock()
		s.retagAsParagraph(bs, be, newID)
		s.syncDocument(a.Block, newID)
		return nil
	}

	if is > bs {
		// Previous character belongs to the same block: merge left. The last
		// character of the previous line decides between body splice and
		// item absorption.
		var prev buffer.Attributes
		if is-2 >= bs {
			prev, _ = s.buf.AttributesAt(is - 2)
		}
		if prev.Block == a.Block && prev.Meta != nil {
			pm := prev.Meta
			s.buf.Retag(is, ie, func(at buffer.Attributes) buffer.Attributes {
				if at.Meta != nil {
					at.Meta = pm
				}
				return at
			})
		} else {
			s.buf.Retag(is, ie, func(at buffer.Attributes) buffer.Attributes {
				at.Meta = nil
				return at
			})
		}
		s.buf.Delete(is-1, is+1)
		s.syncDocument(a.Block)
		return nil
	}

	// A foreign block precedes this item: it becomes its own paragraph
	// block, and whatever follows it in the original block becomes a new
	// sibling block. One deletion can split one block into three.
	touched := []document.BlockID{a.Block}
	paraID := s.ids.NextBlock()
	touched = append(touched, paraID)

	tailStart := ie
	if tailStart < be {
		if r, _ := s.buf.RuneAt(ie); r == '\n' {
			tailStart = ie + 1
		}
	}
	if tailStart < be {
		tailID := s.ids.NextBlock()
		touched = append(touched, tailID)
		s.buf.Retag(tailStart, be, func(at buffer.Attributes) buffer.Attributes {
			at.Block = tailID
			return at
		})
	}
	if ie < be {
		// The separator after the item now trails the new paragraph.
		s.buf.Retag(ie, ie+1, func(at buffer.Attributes) buffer.Attributes {
			at.Block = paraID
			at.Kind = document.KindParagraph
			at.Meta = nil
			at.Heading = 0
			at.FontSize = 0
			return at
		})
	}
	s.retagAsParagraph(is, ie, paraID)
	s.syncDocument(touched...)
	return nil
}

// retagAsParagraph rewrites [start, end) as plain paragraph content with the
// given block id and deletes every marker character inside it.
func (s *Session) retagAsParagraph(start, end int, id document.BlockID) {
	s.buf.Retag(start, end, func(at buffer.Attributes) buffer.Attributes {
		at.Kind = document.KindParagraph
		at.Block = id
		at.Meta = nil
		at.Heading = 0
		at.FontSize = 0
		return at
	})
	s.stripMarkers(start, end)
}

// stripMarkers deletes every marker character in [start, end), back to
// front, and returns how many were removed.
func (s *Session) stripMarkers(start, end int) int {
	var positions []int
	off := 0
	for _, sp := range s.buf.Spans() {
		for i, r := range []rune(sp.Text) {
			p := off + i
			if p >= start && p < end && r == buffer.Marker {
				positions = append(positions, p)
			}
		}
		off = sp.End
	}
	for i := len(positions) - 1; i >= 0; i-- {
		s.buf.Delete(positions[i], positions[i]+1)
	}
	return len(positions)
}
