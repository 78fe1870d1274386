package engine

import (
	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// bufLine is one line of a block's buffer range: its bounds (trailing
// newline excluded), the item metadata found on it (nil for body/plain
// lines), and its inline runs with markers stripped.
type bufLine struct {
	start, end int
	meta       *buffer.ItemMeta
	runs       []document.Run
}

// scanLines splits [start, end) on newlines and collapses each line's spans
// into style-uniform runs. Marker characters are dropped from run text; the
// first metadata tag seen on a line identifies its item.
func scanLines(b *buffer.Buffer, start, end int) []bufLine {
	lines := []bufLine{{start: start}}
	appendRun := func(text string, st document.Style) {
		if text == "" {
			return
		}
		ln := &lines[len(lines)-1]
		if n := len(ln.runs); n > 0 && ln.runs[n-1].Style == st {
			ln.runs[n-1].Text += text
			return
		}
		ln.runs = append(ln.runs, document.Run{Text: text, Style: st})
	}
	for _, sp := range b.Spans() {
		if sp.End <= start || sp.Start >= end {
			continue
		}
		lo, hi := sp.Start, sp.End
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		text := []rune(sp.Text)[lo-sp.Start : hi-sp.Start]
		seg := make([]rune, 0, len(text))
		pos := lo
		for _, r := range text {
			switch r {
			case '\n':
				appendRun(string(seg), sp.Attrs.Style)
				seg = seg[:0]
				lines[len(lines)-1].end = pos
				lines = append(lines, bufLine{start: pos + 1})
			case buffer.Marker:
				if lines[len(lines)-1].meta == nil {
					lines[len(lines)-1].meta = sp.Attrs.Meta
				}
			default:
				if lines[len(lines)-1].meta == nil && sp.Attrs.Meta != nil {
					lines[len(lines)-1].meta = sp.Attrs.Meta
				}
				seg = append(seg, r)
			}
			pos++
		}
		appendRun(string(seg), sp.Attrs.Style)
	}
	lines[len(lines)-1].end = end
	return lines
}

// reconstructBlock rebuilds one top-level block from its current buffer
// range. Container parent references are resolved against the pre-edit
// document; unresolvable parents reparent to the block root with a warning
// rather than dropping content. Returns nil when the block has no range.
func (s *Session) reconstructBlock(id document.BlockID, pre *document.Document) *document.Block {
	bs, be, ok := s.buf.BlockRange(id)
	if !ok {
		return nil
	}
	// Trailing newline is the inter-block separator, not content.
	contentEnd := be
	if be < s.buf.Len() {
		if r, _ := s.buf.RuneAt(be - 1); r == '\n' && be-1 >= bs {
			contentEnd = be - 1
		}
	}
	first, _ := s.buf.AttributesAt(bs)
	switch first.Kind {
	case document.KindParagraph:
		return &document.Block{ID: id, Kind: first.Kind, Runs: s.runsIn(bs, contentEnd)}
	case document.KindHeading:
		return &document.Block{ID: id, Kind: first.Kind, Level: first.Heading, Runs: s.runsIn(bs, contentEnd)}
	default:
		return s.reconstructContainers(id, first.Kind, bs, contentEnd, pre)
	}
}

// runsIn collapses a range into style-uniform runs, markers stripped and
// internal newlines kept (a paragraph may legitimately contain them).
func (s *Session) runsIn(start, end int) []document.Run {
	var runs []document.Run
	push := func(text string, st document.Style) {
		if text == "" {
			return
		}
		if n := len(runs); n > 0 && runs[n-1].Style == st {
			runs[n-1].Text += text
			return
		}
		runs = append(runs, document.Run{Text: text, Style: st})
	}
	for _, sp := range s.buf.Spans() {
		if sp.End <= start || sp.Start >= end {
			continue
		}
		lo, hi := sp.Start, sp.End
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		text := []rune(sp.Text)[lo-sp.Start : hi-sp.Start]
		seg := make([]rune, 0, len(text))
		for _, r := range text {
			if r != buffer.Marker {
				seg = append(seg, r)
			}
		}
		push(string(seg), sp.Attrs.Style)
	}
	return runs
}

func (s *Session) reconstructContainers(id document.BlockID, kind document.Kind, start, end int, pre *document.Document) *document.Block {
	lines := scanLines(s.buf, start, end)

	// Root container identity: prefer the pre-edit block's root so container
	// ids survive edits; for lists the level-0 metadata is ground truth.
	var root *document.Container
	if pb := pre.Block(id); pb != nil && pb.Body != nil && pb.Kind == kind {
		root = &document.Container{ID: pb.Body.ID, Ordered: pb.Body.Ordered}
	}
	if kind == document.KindList {
		for _, ln := range lines {
			if ln.meta != nil && ln.meta.Level == 0 {
				if root == nil {
					root = &document.Container{ID: ln.meta.Parent}
				}
				root.Ordered = ln.meta.Ordered
				break
			}
		}
	}
	if root == nil {
		root = &document.Container{ID: s.ids.NextContainer()}
	}

	registry := map[document.ContainerID]*document.Container{root.ID: root}
	lastAt := map[int]*document.Container{}
	for _, ln := range lines {
		switch {
		case ln.meta == nil:
			// Untagged line: body text of the block's root container.
			root.Items = append(root.Items, document.TextItem(ln.runs...))
		case ln.meta.Level == 0:
			// Directly-owned item; its parent id aliases the root.
			registry[ln.meta.Parent] = root
			root.Items = append(root.Items, document.TextItem(ln.runs...))
			lastAt[0] = root
		default:
			c := s.materialize(id, ln.meta, registry, lastAt, pre, root)
			c.Items = append(c.Items, document.TextItem(ln.runs...))
			lastAt[ln.meta.Level] = c
		}
	}
	return &document.Block{ID: id, Kind: kind, Body: root}
}

// materialize returns the container for an item's parent id, creating and
// attaching it on first sight. The new container's own parent is resolved
// against the pre-edit document, then against the most recent container one
// level up in scan order, and finally falls back to the block root.
func (s *Session) materialize(blockID document.BlockID, meta *buffer.ItemMeta, registry map[document.ContainerID]*document.Container, lastAt map[int]*document.Container, pre *document.Document, root *document.Container) *document.Container {
	if c, ok := registry[meta.Parent]; ok {
		return c
	}
	c := &document.Container{ID: meta.Parent, Ordered: meta.Ordered}
	var parent *document.Container
	if pc := pre.Container(meta.Parent); pc != nil {
		if pp, ok := registry[pc.ParentID]; ok {
			parent = pp
		}
	}
	if parent == nil {
		parent = lastAt[meta.Level-1]
	}
	if parent == nil {
		parent = root
		if meta.Level > 1 {
			s.log.Warn().
				Int64("block", int64(blockID)).
				Int64("container", int64(meta.Parent)).
				Int("level", meta.Level).
				Msg("broken hierarchy: reparented container to block root")
		}
	}
	c.ParentID = parent.ID
	parent.Items = append(parent.Items, document.NestedItem(c))
	registry[meta.Parent] = c
	return c
}

// syncDocument re-derives the document's block sequence from buffer order,
// rebuilding every touched block and reusing the rest. Blocks whose ranges
// vanished are dropped. Applied as one step so an external reader never
// observes a half-updated tree.
func (s *Session) syncDocument(touched ...document.BlockID) {
	tset := make(map[document.BlockID]bool, len(touched))
	for _, id := range touched {
		tset[id] = true
	}
	pre := s.doc
	seen := make(map[document.BlockID]bool)
	var blocks []*document.Block
	for _, id := range s.buf.BlockOrder() {
		if seen[id] {
			continue
		}
		seen[id] = true
		var blk *document.Block
		if !tset[id] {
			blk = pre.Block(id)
		}
		if blk == nil {
			blk = s.reconstructBlock(id, pre)
		}
		if blk != nil {
			blocks = append(blocks, blk)
		}
	}
	for _, b := range pre.Blocks {
		if !seen[b.ID] {
			s.log.Info().Int64("block", int64(b.ID)).Msg("empty block removed")
		}
	}
	next := document.New()
	next.Blocks = blocks
	next.Reindex()
	s.doc = next
}
