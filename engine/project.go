package engine

import (
	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// projectDocument serializes a tree into a fresh flat buffer: blocks in
// document order, a newline separator (tagged with the preceding block,
// never with item metadata) between blocks, and a zero-width marker before
// every list/quote item. Pure function of the document apart from the fresh
// item tokens drawn from ids; re-projecting an unmodified document yields
// byte-identical text.
func projectDocument(d *document.Document, ids *document.IDSource, opts Options) *buffer.Buffer {
	b := buffer.New()
	for i, blk := range d.Blocks {
		projectBlock(b, blk, ids, opts)
		if i < len(d.Blocks)-1 {
			b.Insert(b.Len(), "\n", buffer.Attributes{Kind: blk.Kind, Block: blk.ID})
		}
	}
	return b
}

func projectBlock(b *buffer.Buffer, blk *document.Block, ids *document.IDSource, opts Options) {
	switch blk.Kind {
	case document.KindParagraph:
		for _, r := range blk.Runs {
			b.Insert(b.Len(), r.Text, buffer.Attributes{
				Kind:  blk.Kind,
				Block: blk.ID,
				Style: r.Style,
			})
		}
	case document.KindHeading:
		// Bold presentation is derived from Heading > 0 by renderers; run
		// styles pass through untouched.
		size := opts.headingSize(blk.Level)
		for _, r := range blk.Runs {
			b.Insert(b.Len(), r.Text, buffer.Attributes{
				Kind:     blk.Kind,
				Block:    blk.ID,
				Heading:  blk.Level,
				FontSize: size,
				Style:    r.Style,
			})
		}
	case document.KindQuote, document.KindList:
		if blk.Body == nil {
			return
		}
		first := true
		projectContainer(b, blk, blk.Body, 0, &first, ids)
	}
}

// projectContainer emits a container's items depth-first in buffer order.
// List items always carry metadata; quote items directly in the root
// container are body lines and carry none. depth counts container edges from
// the block's root container.
func projectContainer(b *buffer.Buffer, blk *document.Block, c *document.Container, depth int, first *bool, ids *document.IDSource) {
	for _, it := range c.Items {
		if it.Child != nil {
			projectContainer(b, blk, it.Child, depth+1, first, ids)
			continue
		}
		if !*first {
			b.Insert(b.Len(), "\n", buffer.Attributes{Kind: blk.Kind, Block: blk.ID})
		}
		*first = false

		var meta *buffer.ItemMeta
		if blk.Kind == document.KindList || depth > 0 {
			meta = &buffer.ItemMeta{
				ItemID:  ids.NextItem(),
				Level:   depth,
				Ordered: c.Ordered,
				Parent:  c.ID,
			}
		}
		attrs := buffer.Attributes{Kind: blk.Kind, Block: blk.ID, Meta: meta}
		b.Insert(b.Len(), string(buffer.Marker), attrs)
		for _, r := range it.Runs {
			a := attrs
			a.Style = r.Style
			b.Insert(b.Len(), r.Text, a)
		}
	}
}
