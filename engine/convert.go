package engine

import (
	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// lineSpan expands [start, end) to whole-line bounds: back to the character
// after the previous newline, forward to the next newline (exclusive).
func (s *Session) lineSpan(r Range) (int, int) {
	start, end := r.Start, r.End
	if end < start {
		end = start
	}
	if n := s.buf.Len(); end > n {
		end = n
	}
	for start > 0 {
		if c, _ := s.buf.RuneAt(start - 1); c == '\n' {
			break
		}
		start--
	}
	for end < s.buf.Len() {
		if c, _ := s.buf.RuneAt(end); c == '\n' {
			break
		}
		end++
	}
	return start, end
}

// lineStarts returns the start offset of every line overlapping [start, end).
func (s *Session) lineStarts(start, end int) []int {
	starts := []int{start}
	for p := start; p < end; p++ {
		if c, _ := s.buf.RuneAt(p); c == '\n' && p+1 < end {
			starts = append(starts, p+1)
		}
	}
	return starts
}

// Indent nests every list/quote item line overlapping r one level deeper.
// A line can only indent under a preceding sibling: the first item of its
// level group, a line at MaxIndent, and a line without item metadata are
// left alone. An item whose previous line already sits one level deeper
// joins that container; otherwise a fresh container is created under the
// previous line's container.
func (s *Session) Indent(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > s.buf.Len() {
		return ErrMalformedEdit
	}
	ls, le := s.lineSpan(r)
	touched := s.blockIDsIn(ls, le)
	for _, lstart := range s.lineStarts(ls, le) {
		a, ok := s.buf.AttributesAt(lstart)
		if !ok || a.Meta == nil {
			continue
		}
		meta := a.Meta
		if meta.Level >= s.opts.MaxIndent {
			continue
		}
		is, ie, ok := s.buf.ItemRange(meta.ItemID)
		if !ok {
			s.log.Warn().Str("item", meta.ItemID).Msg("malformed edit: unknown item id")
			return ErrMalformedEdit
		}
		pm := s.prevLineMeta(is, a.Block)
		if pm == nil || pm.Level < meta.Level {
			// No preceding sibling to nest under.
			continue
		}
		var parent document.ContainerID
		ordered := meta.Ordered
		if pm.Level == meta.Level+1 {
			parent = pm.Parent
			ordered = pm.Ordered
		} else {
			parent = s.ids.NextContainer()
		}
		newMeta := &buffer.ItemMeta{
			ItemID:  meta.ItemID,
			Level:   meta.Level + 1,
			Ordered: ordered,
			Parent:  parent,
		}
		old := meta.ItemID
		s.buf.Retag(is, ie, func(at buffer.Attributes) buffer.Attributes {
			if at.Meta != nil && at.Meta.ItemID == old {
				at.Meta = newMeta
			}
			return at
		})
	}
	s.syncDocument(touched...)
	return nil
}

// prevLineMeta returns the metadata of the line ending just before pos, or
// nil when pos starts the block.
func (s *Session) prevLineMeta(pos int, block document.BlockID) *buffer.ItemMeta {
	if pos == 0 {
		return nil
	}
	p, ok := s.buf.AttributesAt(pos - 1)
	if !ok || p.Block != block {
		return nil
	}
	if pos-2 < 0 {
		return nil
	}
	pa, ok := s.buf.AttributesAt(pos - 2)
	if !ok || pa.Block != block {
		return nil
	}
	return pa.Meta
}

// Outdent unnests every item line overlapping r one level. Level-0 list
// items leave the list and become paragraphs; level-0 quote items fold back
// into the quote body. Lines are processed back to front so earlier offsets
// stay valid across structural rewrites.
func (s *Session) Outdent(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > s.buf.Len() {
		return ErrMalformedEdit
	}
	ls, le := s.lineSpan(r)
	starts := s.lineStarts(ls, le)
	for i := len(starts) - 1; i >= 0; i-- {
		a, ok := s.buf.AttributesAt(starts[i])
		if !ok || a.Meta == nil {
			continue
		}
		var err error
		switch {
		case a.Meta.Level > 0:
			err = s.dedentItem(a)
		case a.Kind == document.KindQuote:
			err = s.foldQuoteItem(a)
		default:
			err = s.detachListItem(a, false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ToHeading converts the block(s) under r to a heading of the given level.
func (s *Session) ToHeading(level int, r Range) error {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return s.convert(r, document.KindHeading, level, false)
}

// ToParagraph converts the block(s) under r to plain paragraphs.
func (s *Session) ToParagraph(r Range) error {
	return s.convert(r, document.KindParagraph, 0, false)
}

// ToBlockquote converts the block(s) under r to a block quote; each line
// becomes one body line.
func (s *Session) ToBlockquote(r Range) error {
	return s.convert(r, document.KindQuote, 0, false)
}

// ToList converts the block(s) under r to a flat list; each line becomes one
// level-0 item.
func (s *Session) ToList(ordered bool, r Range) error {
	return s.convert(r, document.KindList, 0, ordered)
}

// convert retags whole lines overlapping r as a single block of the target
// kind, splitting the surrounding block where the selection ends mid-block.
func (s *Session) convert(r Range, kind document.Kind, level int, ordered bool) error {
	if r.Start < 0 || r.End < r.Start || r.End > s.buf.Len() {
		return ErrMalformedEdit
	}
	if s.buf.Len() == 0 {
		return s.convertEmpty(kind, level, ordered)
	}

	ls, le := s.lineSpan(r)
	touched := s.blockIDsIn(ls, le)

	newID := s.ids.NextBlock()
	touched = append(touched, newID)

	// Content after the converted lines in the last overlapped block splits
	// off into its own block; the separator at le closes the converted block
	// either way. Content before the converted lines keeps its id, and the
	// preceding separator already points at it.
	pos := le
	if pos >= s.buf.Len() {
		pos = s.buf.Len() - 1
	}
	lastAttrs, _ := s.buf.AttributesAt(pos)
	if _, lbe, ok := s.buf.BlockRange(lastAttrs.Block); ok && le < lbe {
		if le+1 < lbe {
			tailID := s.ids.NextBlock()
			touched = append(touched, tailID)
			s.buf.Retag(le+1, lbe, func(at buffer.Attributes) buffer.Attributes {
				at.Block = tailID
				return at
			})
		}
		s.buf.Retag(le, le+1, func(at buffer.Attributes) buffer.Attributes {
			at.Block = newID
			at.Kind = kind
			at.Heading = 0
			at.FontSize = 0
			at.Meta = nil
			return at
		})
	}

	size := 0.0
	if kind == document.KindHeading {
		size = s.opts.headingSize(level)
	}
	var rootC document.ContainerID
	if kind == document.KindQuote || kind == document.KindList {
		rootC = s.ids.NextContainer()
	}

	starts := s.lineStarts(ls, le)
	for i := len(starts) - 1; i >= 0; i-- {
		lstart := starts[i]
		lend := lstart
		for lend < le {
			if c, _ := s.buf.RuneAt(lend); c == '\n' {
				break
			}
			lend++
		}
		if lend < le {
			// Internal separator joins the converted block. Retagged before
			// the line rewrite so its offset is still valid.
			s.buf.Retag(lend, lend+1, func(at buffer.Attributes) buffer.Attributes {
				at.Block = newID
				at.Kind = kind
				at.Heading = 0
				at.FontSize = 0
				at.Meta = nil
				return at
			})
		}
		s.convertLine(lstart, lend, newID, kind, level, size, ordered, rootC)
	}
	s.syncDocument(touched...)
	return nil
}

// convertLine rewrites one line to the target kind: paragraph/heading lines
// shed markers and metadata, quote/list lines gain a leading marker (list
// lines a fresh level-0 item tag).
func (s *Session) convertLine(lstart, lend int, id document.BlockID, kind document.Kind, level int, size float64, ordered bool, rootC document.ContainerID) {
	switch kind {
	case document.KindParagraph, document.KindHeading:
		n := s.stripMarkers(lstart, lend)
		lend -= n
		s.buf.Retag(lstart, lend, func(at buffer.Attributes) buffer.Attributes {
			at.Kind = kind
			at.Block = id
			at.Meta = nil
			at.Heading = level
			at.FontSize = size
			return at
		})
	case document.KindQuote, document.KindList:
		var meta *buffer.ItemMeta
		if kind == document.KindList {
			meta = &buffer.ItemMeta{
				ItemID:  s.ids.NextItem(),
				Level:   0,
				Ordered: ordered,
				Parent:  rootC,
			}
		}
		hasMarker := false
		if lstart < lend {
			if c, _ := s.buf.RuneAt(lstart); c == buffer.Marker {
				hasMarker = true
			}
		}
		s.buf.Retag(lstart, lend, func(at buffer.Attributes) buffer.Attributes {
			at.Kind = kind
			at.Block = id
			at.Meta = meta
			at.Heading = 0
			at.FontSize = 0
			return at
		})
		if !hasMarker {
			s.buf.Insert(lstart, string(buffer.Marker), buffer.Attributes{
				Kind: kind, Block: id, Meta: meta,
			})
		}
	}
}

// convertEmpty seeds an empty buffer with a single empty block of the target
// kind, ready to type into.
func (s *Session) convertEmpty(kind document.Kind, level int, ordered bool) error {
	switch kind {
	case document.KindParagraph, document.KindHeading:
		// No characters to retag; the next typed character anchors a plain
		// block anyway, so there is nothing to seed.
		return nil
	default:
		id := s.ids.NextBlock()
		var meta *buffer.ItemMeta
		rootC := s.ids.NextContainer()
		if kind == document.KindList {
			meta = &buffer.ItemMeta{ItemID: s.ids.NextItem(), Level: 0, Ordered: ordered, Parent: rootC}
		}
		s.buf.Insert(0, string(buffer.Marker), buffer.Attributes{Kind: kind, Block: id, Meta: meta})
		s.syncDocument(id)
		return nil
	}
}
