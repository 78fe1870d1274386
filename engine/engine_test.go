package engine

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xonecas/inkline/document"
)

// newTestSession returns a session with sequential item tokens so buffer
// dumps are stable across runs.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	ids := document.NewIDSource()
	n := 0
	ids.ItemIDs = func() string {
		n++
		return fmt.Sprintf("i%d", n)
	}
	return NewSession(ids, DefaultOptions(), zerolog.Nop())
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func mustEdit(t *testing.T, s *Session, r Range, text string) bool {
	t.Helper()
	applied, err := s.BufferWillChange(r, text)
	if err != nil {
		t.Fatalf("BufferWillChange(%v, %q): %v", r, text, err)
	}
	return applied
}

// mixedDoc is a heading, a styled paragraph, and a list with one nested
// ordered sublist.
func mixedDoc() *document.Document {
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindHeading, Level: 1, Runs: []document.Run{{Text: "Title"}}},
		{ID: 2, Kind: document.KindParagraph, Runs: []document.Run{
			{Text: "Hello "},
			{Text: "world", Style: document.Style{Bold: true}},
		}},
		{ID: 3, Kind: document.KindList, Body: &document.Container{
			ID: 4,
			Items: []document.Item{
				document.TextItem(document.Run{Text: "alpha"}),
				document.NestedItem(&document.Container{
					ID:      5,
					Ordered: true,
					Items:   []document.Item{document.TextItem(document.Run{Text: "beta"})},
				}),
				document.TextItem(document.Run{Text: "gamma"}),
			},
		}},
	}
	d.Reindex()
	return d
}

func loadParagraph(t *testing.T, s *Session, text string) {
	t.Helper()
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindParagraph, Runs: []document.Run{{Text: text}}},
	}
	d.Reindex()
	s.LoadDocument(d)
}

func loadList(t *testing.T, s *Session, ordered bool, items ...string) {
	t.Helper()
	c := &document.Container{ID: 2, Ordered: ordered}
	for _, it := range items {
		c.Items = append(c.Items, document.TextItem(document.Run{Text: it}))
	}
	d := document.New()
	d.Blocks = []*document.Block{{ID: 1, Kind: document.KindList, Body: c}}
	d.Reindex()
	s.LoadDocument(d)
}

func blockKinds(s *Session) []document.Kind {
	var out []document.Kind
	for _, b := range s.Document().Blocks {
		out = append(out, b.Kind)
	}
	return out
}

func blockTexts(s *Session) []string {
	var out []string
	for _, b := range s.Document().Blocks {
		out = append(out, b.Text())
	}
	return out
}

func assertTexts(t *testing.T, s *Session, want ...string) {
	t.Helper()
	got := blockTexts(s)
	if len(got) != len(want) {
		t.Fatalf("blocks = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d = %q, want %q", i, got[i], want[i])
		}
	}
}
