package store

import (
	"path/filepath"
	"testing"

	"github.com/xonecas/inkline/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDoc() *document.Document {
	d := document.New()
	d.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindHeading, Level: 1, Runs: []document.Run{{Text: "Notes"}}},
		{ID: 2, Kind: document.KindParagraph, Runs: []document.Run{
			{Text: "plain "},
			{Text: "styled", Style: document.Style{Italic: true, Color: "#ff0000"}},
		}},
		{ID: 3, Kind: document.KindList, Body: &document.Container{
			ID:      4,
			Ordered: true,
			Items: []document.Item{
				document.TextItem(document.Run{Text: "one"}),
				document.NestedItem(&document.Container{
					ID:    5,
					Items: []document.Item{document.TextItem(document.Run{Text: "deep"})},
				}),
			},
		}},
	}
	d.Reindex()
	return d
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := sampleDoc()

	if err := s.Save("notes", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("notes")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot")
	}
	if !document.Equal(want, got) {
		t.Fatalf("round trip changed document:\nwant %q\ngot  %q", want.Text(), got.Text())
	}
	// The arena must be rebuilt on decode.
	if c := got.Container(5); c == nil || c.ParentID != 4 {
		t.Fatalf("container arena not rebuilt: %+v", c)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load("nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatal("missing snapshot should return nil, nil")
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("doc", sampleDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := document.New()
	second.Blocks = []*document.Block{
		{ID: 1, Kind: document.KindParagraph, Runs: []document.Run{{Text: "v2"}}},
	}
	second.Reindex()
	if err := s.Save("doc", second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Text() != "v2" {
		t.Fatalf("Text = %q, want overwrite", got.Text())
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "doc" {
		t.Fatalf("List = %+v", list)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("gone", sampleDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Load("gone"); got != nil {
		t.Fatal("snapshot should be deleted")
	}
	// Deleting a missing name is fine.
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete again: %v", err)
	}
}

func TestKindCodec(t *testing.T) {
	for _, k := range []document.Kind{
		document.KindParagraph, document.KindHeading, document.KindQuote, document.KindList,
	} {
		got, err := kindFromString(k.String())
		if err != nil || got != k {
			t.Errorf("kind %v: got %v, err %v", k, got, err)
		}
	}
	if _, err := kindFromString("table"); err == nil {
		t.Error("unknown kind should fail")
	}
}
