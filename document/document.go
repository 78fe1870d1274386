// Package document defines the hierarchical rich-text model: an ordered
// sequence of top-level blocks (paragraphs, headings, block quotes, lists),
// where quote and list bodies are containers that may nest arbitrarily.
//
// Containers form an arena: the Document indexes every container by id and
// parent/child edges are stored as id pairs, so a container can be referred
// to before its parent is materialized during reconstruction.
package document

import "strings"

// Kind identifies the structural type of a top-level block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindQuote
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindQuote:
		return "quote"
	case KindList:
		return "list"
	}
	return "unknown"
}

// BlockID identifies a top-level block. IDs are unique for the lifetime of a
// document and are never reused, even after the block is deleted.
type BlockID int64

// ContainerID identifies a list or quote container. Same uniqueness rules as
// BlockID. Zero means "no container".
type ContainerID int64

// Style is the inline styling of a run. Pure value, no identity.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	Color     string
}

// Run is a styled fragment of inline text.
type Run struct {
	Text  string
	Style Style
}

// Item is one entry of a container: either styled text or a nested
// container. Text items have no identity in the tree; the transient item ids
// used for edit anchoring exist only in the flat buffer.
type Item struct {
	Runs  []Run
	Child *Container
}

// TextItem builds a leaf item from inline runs.
func TextItem(runs ...Run) Item { return Item{Runs: runs} }

// NestedItem builds an item holding a nested container.
func NestedItem(c *Container) Item { return Item{Child: c} }

// IsText reports whether the item is a leaf (no nested container).
func (it Item) IsText() bool { return it.Child == nil }

// Text returns the concatenated text of a leaf item.
func (it Item) Text() string {
	var sb strings.Builder
	for _, r := range it.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Container is the body of a list or block quote.
type Container struct {
	ID       ContainerID
	ParentID ContainerID // zero when anchored directly under a top-level block
	Ordered  bool        // uniform across the container's own items
	Items    []Item
}

// Block is one top-level structural unit of the document.
//
// Runs is populated for paragraphs and headings, Body for quotes and lists.
// Level is meaningful for headings only.
type Block struct {
	ID    BlockID
	Kind  Kind
	Level int
	Runs  []Run
	Body  *Container
}

// Text returns the block's plain text, markers and styling stripped.
func (b *Block) Text() string {
	var sb strings.Builder
	switch b.Kind {
	case KindParagraph, KindHeading:
		for _, r := range b.Runs {
			sb.WriteString(r.Text)
		}
	case KindQuote, KindList:
		if b.Body != nil {
			containerText(&sb, b.Body)
		}
	}
	return sb.String()
}

func containerText(sb *strings.Builder, c *Container) {
	for _, it := range c.Items {
		if it.IsText() {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(it.Text())
		} else if it.Child != nil {
			containerText(sb, it.Child)
		}
	}
}

// Document is the canonical tree: ordered top-level blocks plus the container
// arena used to resolve parent references during reconstruction.
type Document struct {
	Blocks     []*Block
	Containers map[ContainerID]*Container
}

// New returns an empty document.
func New() *Document {
	return &Document{Containers: make(map[ContainerID]*Container)}
}

// Block returns the block with the given id, or nil.
func (d *Document) Block(id BlockID) *Block {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Container returns the container with the given id, or nil.
func (d *Document) Container(id ContainerID) *Container {
	if d.Containers == nil {
		return nil
	}
	return d.Containers[id]
}

// Reindex rebuilds the container arena from the block trees. Call after
// constructing or deserializing a document by hand.
func (d *Document) Reindex() {
	d.Containers = make(map[ContainerID]*Container)
	for _, b := range d.Blocks {
		if b.Body != nil {
			d.indexContainer(b.Body, 0)
		}
	}
}

func (d *Document) indexContainer(c *Container, parent ContainerID) {
	c.ParentID = parent
	d.Containers[c.ID] = c
	for _, it := range c.Items {
		if it.Child != nil {
			d.indexContainer(it.Child, c.ID)
		}
	}
}

// MaxID returns the largest block or container id in use, for seeding an id
// source when adopting an externally built document.
func (d *Document) MaxID() int64 {
	var max int64
	for _, b := range d.Blocks {
		if int64(b.ID) > max {
			max = int64(b.ID)
		}
	}
	for id := range d.Containers {
		if int64(id) > max {
			max = int64(id)
		}
	}
	return max
}

// Text returns the whole document as plain text, blocks separated by
// newlines. Debug/test helper.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.Text())
	}
	return sb.String()
}

// Clone returns a deep copy of the document with a freshly built arena.
func (d *Document) Clone() *Document {
	out := New()
	for _, b := range d.Blocks {
		out.Blocks = append(out.Blocks, cloneBlock(b))
	}
	out.Reindex()
	return out
}

func cloneBlock(b *Block) *Block {
	nb := &Block{ID: b.ID, Kind: b.Kind, Level: b.Level}
	nb.Runs = append([]Run(nil), b.Runs...)
	if b.Body != nil {
		nb.Body = cloneContainer(b.Body)
	}
	return nb
}

func cloneContainer(c *Container) *Container {
	nc := &Container{ID: c.ID, ParentID: c.ParentID, Ordered: c.Ordered}
	for _, it := range c.Items {
		ni := Item{Runs: append([]Run(nil), it.Runs...)}
		if it.Child != nil {
			ni.Child = cloneContainer(it.Child)
		}
		nc.Items = append(nc.Items, ni)
	}
	return nc
}

// Equal reports structural equality of two documents, ids included.
func Equal(a, b *Document) bool {
	if len(a.Blocks) != len(b.Blocks) {
		return false
	}
	for i := range a.Blocks {
		if !BlockEqual(a.Blocks[i], b.Blocks[i]) {
			return false
		}
	}
	return true
}

// BlockEqual reports structural equality of two blocks, ids included.
func BlockEqual(a, b *Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Kind != b.Kind || a.Level != b.Level {
		return false
	}
	if !runsEqual(a.Runs, b.Runs) {
		return false
	}
	return containerEqual(a.Body, b.Body)
}

func containerEqual(a, b *Container) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Ordered != b.Ordered || len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !runsEqual(a.Items[i].Runs, b.Items[i].Runs) {
			return false
		}
		if !containerEqual(a.Items[i].Child, b.Items[i].Child) {
			return false
		}
	}
	return true
}

func runsEqual(a, b []Run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
