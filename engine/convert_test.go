package engine

import (
	"testing"

	"github.com/xonecas/inkline/buffer"
	"github.com/xonecas/inkline/document"
)

func TestToHeadingFromParagraph(t *testing.T) {
	s := newTestSession(t)
	loadParagraph(t, s, "hello")

	if err := s.ToHeading(2, Range{1, 1}); err != nil {
		t.Fatal(err)
	}

	b := s.Document().Blocks[0]
	if b.Kind != document.KindHeading || b.Level != 2 {
		t.Fatalf("block = %v level %d", b.Kind, b.Level)
	}
	if b.Runs[0].Style != (document.Style{}) {
		t.Error("conversion must not touch inline styles")
	}
	a, _ := s.AttributesAt(0)
	if a.FontSize != DefaultOptions().HeadingSizes[1] {
		t.Errorf("font size = %g", a.FontSize)
	}
}

func TestToParagraphFromHeading(t *testing.T) {
	s := newTestSession(t)
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindHeading, Level: 1, Runs: []document.Run{{Text: "head"}}},
	}
	d.Reindex()
	s.LoadDocument(d)

	if err := s.ToParagraph(Range{0, 0}); err != nil {
		t.Fatal(err)
	}

	b := s.Document().Blocks[0]
	if b.Kind != document.KindParagraph || b.Level != 0 {
		t.Fatalf("block = %v level %d", b.Kind, b.Level)
	}
	if b.Runs[0].Style != (document.Style{}) {
		t.Error("heading presentation must not leak into the paragraph runs")
	}
}

func TestToListSplitsLinesIntoItems(t *testing.T) {
	s := newTestSession(t)
	loadParagraph(t, s, "foo\nbar")

	if err := s.ToList(false, Range{0, 7}); err != nil {
		t.Fatal(err)
	}

	b := s.Document().Blocks[0]
	if b.Kind != document.KindList || b.Body == nil {
		t.Fatalf("block = %+v", b)
	}
	if len(b.Body.Items) != 2 || b.Body.Items[0].Text() != "foo" || b.Body.Items[1].Text() != "bar" {
		t.Fatalf("items = %+v", b.Body.Items)
	}

	// Every line gained a marker and level-0 metadata in one container.
	fa, _ := s.AttributesAt(0)
	sa, _ := s.AttributesAt(5)
	if fa.Meta == nil || sa.Meta == nil || fa.Meta.Parent != sa.Meta.Parent {
		t.Fatalf("metas = %+v / %+v", fa.Meta, sa.Meta)
	}
	if fa.Meta.ItemID == sa.Meta.ItemID {
		t.Error("each line needs its own item token")
	}
}

func TestToOrderedListOnEmptyBuffer(t *testing.T) {
	s := newTestSession(t)

	if err := s.ToList(true, Range{0, 0}); err != nil {
		t.Fatal(err)
	}

	if got := s.Text(); got != string(buffer.Marker) {
		t.Fatalf("buffer = %q, want lone marker", got)
	}
	b := s.Document().Blocks[0]
	if b.Kind != document.KindList || !b.Body.Ordered {
		t.Fatalf("block = %+v", b)
	}
	if len(b.Body.Items) != 1 || b.Body.Items[0].Text() != "" {
		t.Fatalf("items = %+v, want one empty item", b.Body.Items)
	}
}

func TestToBlockquote(t *testing.T) {
	s := newTestSession(t)
	loadParagraph(t, s, "wisdom")

	if err := s.ToBlockquote(Range{3, 3}); err != nil {
		t.Fatal(err)
	}

	b := s.Document().Blocks[0]
	if b.Kind != document.KindQuote {
		t.Fatalf("kind = %v", b.Kind)
	}
	if len(b.Body.Items) != 1 || b.Body.Items[0].Text() != "wisdom" {
		t.Fatalf("items = %+v", b.Body.Items)
	}
	a, _ := s.AttributesAt(0)
	if a.Meta != nil {
		t.Error("quote body line should carry no item metadata")
	}
}

func TestConvertMiddleBlockSplitsNeighbors(t *testing.T) {
	s := newTestSession(t)
	loadParagraph(t, s, "one\ntwo\nthree")

	// Convert only the middle line; the paragraph splits in three.
	if err := s.ToHeading(1, Range{5, 5}); err != nil {
		t.Fatal(err)
	}

	assertTexts(t, s, "one", "two", "three")
	kinds := blockKinds(s)
	want := []document.Kind{document.KindParagraph, document.KindHeading, document.KindParagraph}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
}

func TestIndentNestsUnderPreviousSibling(t *testing.T) {
	s := newTestSession(t)
	loadList(t, s, false, "alpha", "beta")

	// Caret on "beta" (buffer: marker alpha sep marker beta).
	if err := s.Indent(Range{9, 9}); err != nil {
		t.Fatal(err)
	}

	body := s.Document().Blocks[0].Body
	if len(body.Items) != 2 || body.Items[0].Text() != "alpha" {
		t.Fatalf("items = %+v", body.Items)
	}
	child := body.Items[1].Child
	if child == nil || len(child.Items) != 1 || child.Items[0].Text() != "beta" {
		t.Fatalf("nested = %+v", child)
	}
	if child.ParentID != body.ID {
		t.Fatalf("nested parent = %d, want %d", child.ParentID, body.ID)
	}

	a, _ := s.AttributesAt(9)
	if a.Meta.Level != 1 {
		t.Fatalf("level = %d, want 1", a.Meta.Level)
	}
}

func TestIndentFirstItemIsNoop(t *testing.T) {
	s := newTestSession(t)
	loadList(t, s, false, "alpha", "beta")
	before := s.Text()

	if err := s.Indent(Range{1, 1}); err != nil {
		t.Fatal(err)
	}
	if s.Text() != before {
		t.Fatal("first item has no sibling to nest under")
	}
	a, _ := s.AttributesAt(1)
	if a.Meta.Level != 0 {
		t.Fatalf("level = %d, want 0", a.Meta.Level)
	}
}

func TestIndentStopsAtMaxIndent(t *testing.T) {
	ids := document.NewIDSource()
	s := NewSession(ids, Options{MaxIndent: 1, HeadingSizes: DefaultOptions().HeadingSizes}, testLogger())
	loadList(t, s, false, "a", "b")

	if err := s.Indent(Range{4, 4}); err != nil { // "b" to level 1
		t.Fatal(err)
	}
	if err := s.Indent(Range{4, 4}); err != nil { // already at the cap
		t.Fatal(err)
	}
	a, _ := s.AttributesAt(4)
	if a.Meta.Level != 1 {
		t.Fatalf("level = %d, want capped at 1", a.Meta.Level)
	}
}

func TestOutdentReversesIndent(t *testing.T) {
	s := newTestSession(t)
	loadList(t, s, true, "alpha", "beta")

	if err := s.Indent(Range{9, 9}); err != nil {
		t.Fatal(err)
	}
	if err := s.Outdent(Range{9, 9}); err != nil {
		t.Fatal(err)
	}

	body := s.Document().Blocks[0].Body
	if len(body.Items) != 2 || !body.Items[1].IsText() || body.Items[1].Text() != "beta" {
		t.Fatalf("items = %+v", body.Items)
	}
	a, _ := s.AttributesAt(9)
	if a.Meta.Level != 0 || !a.Meta.Ordered {
		t.Fatalf("meta = %+v, want level 0 ordered", a.Meta)
	}
}

func TestOutdentLevelZeroQuoteFoldsToBody(t *testing.T) {
	s := newTestSession(t)
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindQuote, Body: &document.Container{
			ID: 2,
			Items: []document.Item{
				document.NestedItem(&document.Container{
					ID:    3,
					Items: []document.Item{document.TextItem(document.Run{Text: "tagged"})},
				}),
			},
		}},
	}
	d.Reindex()
	s.LoadDocument(d)

	// The nested item sits at level 1; two outdents reach the body.
	if err := s.Outdent(Range{1, 1}); err != nil {
		t.Fatal(err)
	}
	a, _ := s.AttributesAt(1)
	if a.Meta == nil || a.Meta.Level != 0 {
		t.Fatalf("after first outdent meta = %+v", a.Meta)
	}

	if err := s.Outdent(Range{1, 1}); err != nil {
		t.Fatal(err)
	}
	a, _ = s.AttributesAt(1)
	if a.Meta != nil {
		t.Fatalf("after second outdent meta = %+v, want body line", a.Meta)
	}
	if s.Document().Blocks[0].Kind != document.KindQuote {
		t.Fatal("quote dedent never leaves the quote")
	}
}

func TestOutdentLevelZeroListLeavesList(t *testing.T) {
	s := newTestSession(t)
	loadList(t, s, false, "only")

	if err := s.Outdent(Range{2, 2}); err != nil {
		t.Fatal(err)
	}

	assertTexts(t, s, "only")
	if s.Document().Blocks[0].Kind != document.KindParagraph {
		t.Fatalf("kind = %v, want paragraph", s.Document().Blocks[0].Kind)
	}
}
