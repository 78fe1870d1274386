package engine

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

// diffStrings renders a unified diff for test failure output.
func diffStrings(want, got string) string {
	edits := myers.ComputeEdits(span.URIFromPath("want"), want, got)
	return fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
}

// dumpSpans renders the buffer's span list in a stable textual form.
func dumpSpans(b *buffer.Buffer) string {
	var sb strings.Builder
	for _, sp := range b.Spans() {
		fmt.Fprintf(&sb, "[%d:%d) %s b%d", sp.Start, sp.End, sp.Attrs.Kind, sp.Attrs.Block)
		if sp.Attrs.Heading > 0 {
			fmt.Fprintf(&sb, " h%d fs%g", sp.Attrs.Heading, sp.Attrs.FontSize)
		}
		if sp.Attrs.Style.Bold {
			sb.WriteString(" bold")
		}
		if sp.Attrs.Style.Italic {
			sb.WriteString(" italic")
		}
		if sp.Attrs.Style.Underline {
			sb.WriteString(" underline")
		}
		if sp.Attrs.Style.Color != "" {
			fmt.Fprintf(&sb, " color=%s", sp.Attrs.Style.Color)
		}
		if m := sp.Attrs.Meta; m != nil {
			fmt.Fprintf(&sb, " item=%s lvl=%d ord=%t parent=%d", m.ItemID, m.Level, m.Ordered, m.Parent)
		}
		fmt.Fprintf(&sb, " %s\n", strconv.Quote(sp.Text))
	}
	return sb.String()
}

func TestProjectGolden(t *testing.T) {
	s := newTestSession(t)
	s.LoadDocument(mixedDoc())
	golden.RequireEqual(t, []byte(dumpSpans(s.Buffer())))
}

func TestProjectSeparatorsCarryNoMeta(t *testing.T) {
	s := newTestSession(t)
	s.LoadDocument(mixedDoc())

	for _, sp := range s.Buffer().Spans() {
		if strings.Contains(sp.Text, "\n") && sp.Attrs.Meta != nil {
			t.Errorf("separator span %q carries item metadata", sp.Text)
		}
	}
}

func TestProjectQuoteBodyLinesUntagged(t *testing.T) {
	s := newTestSession(t)
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindQuote, Body: &document.Container{
			ID: 2,
			Items: []document.Item{
				document.TextItem(document.Run{Text: "body line"}),
				document.NestedItem(&document.Container{
					ID:    3,
					Items: []document.Item{document.TextItem(document.Run{Text: "nested"})},
				}),
			},
		}},
	}
	d.Reindex()
	s.LoadDocument(d)

	want := string(buffer.Marker) + "body line\n" + string(buffer.Marker) + "nested"
	if got := s.Text(); got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}

	a, _ := s.AttributesAt(0)
	if a.Meta != nil {
		t.Error("quote body line should carry no item metadata")
	}
	na, _ := s.AttributesAt(11)
	if na.Meta == nil || na.Meta.Level != 1 || na.Meta.Parent != 3 {
		t.Fatalf("nested item metadata = %+v", na.Meta)
	}
}

func TestReprojectionPreservesText(t *testing.T) {
	s := newTestSession(t)
	s.LoadDocument(mixedDoc())
	first := s.Text()

	// Rebuild the tree from the buffer, then project the rebuilt tree.
	// Item tokens are transient, but the character content must agree.
	s.syncDocument(1, 2, 3)
	s.LoadDocument(s.Document())

	if second := s.Text(); second != first {
		t.Fatalf("reprojection changed text:\n%s", diffStrings(first, second))
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	s := newTestSession(t)
	d := mixedDoc()
	want := d.Clone()
	s.LoadDocument(d)

	// Force every block through reconstruction; the tree must survive.
	s.syncDocument(1, 2, 3)

	if !document.Equal(want, s.Document()) {
		t.Fatalf("round trip changed the tree:\nwant %q\ngot  %q", want.Text(), s.Document().Text())
	}
}

func TestReconstructQuoteRoundTrip(t *testing.T) {
	s := newTestSession(t)
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindQuote, Body: &document.Container{
			ID: 2,
			Items: []document.Item{
				document.TextItem(document.Run{Text: "first"}),
				document.NestedItem(&document.Container{
					ID:      3,
					Ordered: true,
					Items:   []document.Item{document.TextItem(document.Run{Text: "deep"})},
				}),
				document.TextItem(document.Run{Text: "last"}),
			},
		}},
	}
	d.Reindex()
	want := d.Clone()
	s.LoadDocument(d)

	s.syncDocument(1)

	if !document.Equal(want, s.Document()) {
		t.Fatalf("quote round trip changed the tree:\nwant %q\ngot  %q", want.Text(), s.Document().Text())
	}
}

func TestReconstructReparentsOrphan(t *testing.T) {
	s := newTestSession(t)
	loadList(t, s, false, "alpha")

	// Corrupt the item's metadata to point at a container nobody knows,
	// two levels down. Reconstruction must keep the content and hang the
	// orphan container off the block root.
	a, _ := s.AttributesAt(0)
	orphan := &buffer.ItemMeta{ItemID: a.Meta.ItemID, Level: 2, Ordered: false, Parent: 999}
	s.Buffer().Retag(0, s.Buffer().Len(), func(at buffer.Attributes) buffer.Attributes {
		at.Meta = orphan
		return at
	})
	s.syncDocument(1)

	doc := s.Document()
	if got := doc.Text(); got != "alpha" {
		t.Fatalf("content lost: %q", got)
	}
	c := doc.Container(999)
	if c == nil {
		t.Fatal("orphan container not materialized")
	}
	if c.ParentID != doc.Blocks[0].Body.ID {
		t.Fatalf("orphan parent = %d, want block root %d", c.ParentID, doc.Blocks[0].Body.ID)
	}
}

func TestSyncDropsVanishedBlocks(t *testing.T) {
	s := newTestSession(t)
	loadParagraph(t, s, "ab")
	mustEdit(t, s, Range{0, 0}, "x") // establish a live block

	// Deleting every character of the block removes it from the tree.
	mustEdit(t, s, Range{0, 3}, "")
	if n := len(s.Document().Blocks); n != 0 {
		t.Fatalf("blocks = %d, want 0", n)
	}
	if s.Buffer().Len() != 0 {
		t.Fatalf("buffer = %q, want empty", s.Text())
	}
}
