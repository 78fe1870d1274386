// Package buffer implements the flat, position-addressed character buffer
// that mirrors a document tree. Every character carries an attribute set
// (block kind, block id, heading/font info, inline style, and for nested
// list/quote items an item metadata tag). The buffer is stored as a
// normalized list of attribute-uniform spans.
package buffer

import (
	"strings"

	"github.com/xonecas/inkline/document"
)

// Marker is the zero-width character prefixed to every list/quote item in
// the buffer. It is the stable edit anchor: backspacing over it triggers
// dedent/merge/convert handling instead of plain character deletion.
const Marker = '\u200b'

// ItemMeta is the metadata tag attached to nested list/quote items.
type ItemMeta struct {
	ItemID  string
	Level   int // 0-based nesting depth under the block's root container
	Ordered bool
	Parent  document.ContainerID
}

// Equal compares two metadata tags by value.
func (m *ItemMeta) Equal(o *ItemMeta) bool {
	if m == nil || o == nil {
		return m == o
	}
	return *m == *o
}

// Attributes is the full per-character tag set.
type Attributes struct {
	Kind     document.Kind
	Block    document.BlockID
	Heading  int     // heading level, 0 otherwise
	FontSize float64 // heading font size, 0 otherwise
	Style    document.Style
	Meta     *ItemMeta // nil unless the character belongs to a nested item
}

// Equal compares attribute sets by value, metadata included.
func (a Attributes) Equal(o Attributes) bool {
	return a.Kind == o.Kind &&
		a.Block == o.Block &&
		a.Heading == o.Heading &&
		a.FontSize == o.FontSize &&
		a.Style == o.Style &&
		a.Meta.Equal(o.Meta)
}

// Span is a read-only view of one attribute-uniform run of characters.
// Start/End are rune offsets, End exclusive.
type Span struct {
	Start, End int
	Text       string
	Attrs      Attributes
}

type span struct {
	text  []rune
	attrs Attributes
}

// Buffer is the flat attributed character buffer. Positions are rune
// offsets. The span list is kept normalized: no empty spans, and adjacent
// spans with equal attributes are merged.
type Buffer struct {
	spans []span
	size  int
}

// New returns an empty buffer.
func New() *Buffer { return &Buffer{} }

// Len returns the buffer length in runes.
func (b *Buffer) Len() int { return b.size }

// String returns the buffer text, marker characters included.
func (b *Buffer) String() string {
	var sb strings.Builder
	for _, s := range b.spans {
		sb.WriteString(string(s.text))
	}
	return sb.String()
}

// Slice returns the text in [start, end).
func (b *Buffer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > b.size {
		end = b.size
	}
	var sb strings.Builder
	off := 0
	for _, s := range b.spans {
		n := len(s.text)
		lo, hi := start-off, end-off
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		if lo < hi {
			sb.WriteString(string(s.text[lo:hi]))
		}
		off += n
		if off >= end {
			break
		}
	}
	return sb.String()
}

// RuneAt returns the rune at pos.
func (b *Buffer) RuneAt(pos int) (rune, bool) {
	i, off := b.locate(pos)
	if i < 0 {
		return 0, false
	}
	return b.spans[i].text[off], true
}

// AttributesAt returns the attribute set of the character at pos.
func (b *Buffer) AttributesAt(pos int) (Attributes, bool) {
	i, _ := b.locate(pos)
	if i < 0 {
		return Attributes{}, false
	}
	return b.spans[i].attrs, true
}

// locate returns the span index and in-span offset holding pos, or (-1, 0)
// when pos is out of range.
func (b *Buffer) locate(pos int) (int, int) {
	if pos < 0 || pos >= b.size {
		return -1, 0
	}
	off := pos
	for i, s := range b.spans {
		if off < len(s.text) {
			return i, off
		}
		off -= len(s.text)
	}
	return -1, 0
}

// splitAt ensures a span boundary exists at pos and returns the index of the
// span starting there (len(spans) when pos == Len()).
func (b *Buffer) splitAt(pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= b.size {
		return len(b.spans)
	}
	off := pos
	for i := range b.spans {
		n := len(b.spans[i].text)
		if off == 0 {
			return i
		}
		if off < n {
			s := b.spans[i]
			head := span{text: s.text[:off:off], attrs: s.attrs}
			tail := span{text: s.text[off:], attrs: s.attrs}
			b.spans = append(b.spans[:i], append([]span{head, tail}, b.spans[i+1:]...)...)
			return i + 1
		}
		off -= n
	}
	return len(b.spans)
}

// Insert splices text with the given attributes at pos.
func (b *Buffer) Insert(pos int, text string, attrs Attributes) {
	if text == "" {
		return
	}
	i := b.splitAt(pos)
	ns := span{text: []rune(text), attrs: attrs}
	b.spans = append(b.spans[:i], append([]span{ns}, b.spans[i:]...)...)
	b.size += len(ns.text)
	b.normalize()
}

// Delete removes [start, end).
func (b *Buffer) Delete(start, end int) {
	if start >= end {
		return
	}
	i := b.splitAt(start)
	j := b.splitAt(end)
	removed := 0
	for _, s := range b.spans[i:j] {
		removed += len(s.text)
	}
	b.spans = append(b.spans[:i], b.spans[j:]...)
	b.size -= removed
	b.normalize()
}

// Retag rewrites the attributes of every span in [start, end) through fn.
// Text is untouched.
func (b *Buffer) Retag(start, end int, fn func(Attributes) Attributes) {
	if start >= end {
		return
	}
	i := b.splitAt(start)
	j := b.splitAt(end)
	for k := i; k < j; k++ {
		b.spans[k].attrs = fn(b.spans[k].attrs)
	}
	b.normalize()
}

func (b *Buffer) normalize() {
	out := b.spans[:0]
	for _, s := range b.spans {
		if len(s.text) == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].attrs.Equal(s.attrs) {
			out[n-1].text = append(out[n-1].text, s.text...)
			continue
		}
		out = append(out, s)
	}
	b.spans = out
}

// Spans returns a snapshot of the buffer's spans with absolute offsets.
func (b *Buffer) Spans() []Span {
	out := make([]Span, 0, len(b.spans))
	off := 0
	for _, s := range b.spans {
		out = append(out, Span{
			Start: off,
			End:   off + len(s.text),
			Text:  string(s.text),
			Attrs: s.attrs,
		})
		off += len(s.text)
	}
	return out
}

// BlockRange returns the contiguous range tagged with the given block id.
func (b *Buffer) BlockRange(id document.BlockID) (start, end int, ok bool) {
	off := 0
	start = -1
	for _, s := range b.spans {
		if s.attrs.Block == id {
			if start < 0 {
				start = off
			}
			end = off + len(s.text)
		}
		off += len(s.text)
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// BlockOrder returns the distinct block ids in buffer order.
func (b *Buffer) BlockOrder() []document.BlockID {
	var out []document.BlockID
	var last document.BlockID
	for _, s := range b.spans {
		if len(out) == 0 || s.attrs.Block != last {
			out = append(out, s.attrs.Block)
			last = s.attrs.Block
		}
	}
	return out
}

// ItemRange returns the range of the item with the given transient id,
// leading marker included.
func (b *Buffer) ItemRange(itemID string) (start, end int, ok bool) {
	off := 0
	start = -1
	for _, s := range b.spans {
		if s.attrs.Meta != nil && s.attrs.Meta.ItemID == itemID {
			if start < 0 {
				start = off
			}
			end = off + len(s.text)
		}
		off += len(s.text)
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// Ranges returns the attribute-uniform runs of characters whose attributes
// satisfy pred, in buffer order. Used by decoration layers to find every
// range needing marker glyphs.
func (b *Buffer) Ranges(pred func(Attributes) bool) []Span {
	var out []Span
	off := 0
	for _, s := range b.spans {
		if pred(s.attrs) {
			out = append(out, Span{
				Start: off,
				End:   off + len(s.text),
				Text:  string(s.text),
				Attrs: s.attrs,
			})
		}
		off += len(s.text)
	}
	return out
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	nb := &Buffer{size: b.size}
	nb.spans = make([]span, len(b.spans))
	for i, s := range b.spans {
		nb.spans[i] = span{text: append([]rune(nil), s.text...), attrs: s.attrs}
	}
	return nb
}
