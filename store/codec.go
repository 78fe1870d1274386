package store

import (
	"encoding/json"
	"fmt"

	"github.com/xonecas/inkline/document"
)

// Wire types for snapshot serialization. Kept separate from the document
// package so tree types never grow serialization tags.

type docJSON struct {
	Blocks []blockJSON `json:"blocks"`
}

type blockJSON struct {
	ID    int64          `json:"id"`
	Kind  string         `json:"kind"`
	Level int            `json:"level,omitempty"`
	Runs  []runJSON      `json:"runs,omitempty"`
	Body  *containerJSON `json:"body,omitempty"`
}

type containerJSON struct {
	ID      int64      `json:"id"`
	Ordered bool       `json:"ordered,omitempty"`
	Items   []itemJSON `json:"items"`
}

type itemJSON struct {
	Runs  []runJSON      `json:"runs,omitempty"`
	Child *containerJSON `json:"child,omitempty"`
}

type runJSON struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Color     string `json:"color,omitempty"`
}

func encodeDocument(d *document.Document) (string, error) {
	out := docJSON{}
	for _, b := range d.Blocks {
		bj := blockJSON{
			ID:    int64(b.ID),
			Kind:  b.Kind.String(),
			Level: b.Level,
			Runs:  encodeRuns(b.Runs),
		}
		if b.Body != nil {
			bj.Body = encodeContainer(b.Body)
		}
		out.Blocks = append(out.Blocks, bj)
	}
	body, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func encodeContainer(c *document.Container) *containerJSON {
	cj := &containerJSON{ID: int64(c.ID), Ordered: c.Ordered}
	for _, it := range c.Items {
		ij := itemJSON{Runs: encodeRuns(it.Runs)}
		if it.Child != nil {
			ij.Child = encodeContainer(it.Child)
		}
		cj.Items = append(cj.Items, ij)
	}
	return cj
}

func encodeRuns(runs []document.Run) []runJSON {
	var out []runJSON
	for _, r := range runs {
		out = append(out, runJSON{
			Text:      r.Text,
			Bold:      r.Style.Bold,
			Italic:    r.Style.Italic,
			Underline: r.Style.Underline,
			Color:     r.Style.Color,
		})
	}
	return out
}

func decodeDocument(body string) (*document.Document, error) {
	var in docJSON
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return nil, err
	}
	d := document.New()
	for _, bj := range in.Blocks {
		kind, err := kindFromString(bj.Kind)
		if err != nil {
			return nil, err
		}
		b := &document.Block{
			ID:    document.BlockID(bj.ID),
			Kind:  kind,
			Level: bj.Level,
			Runs:  decodeRuns(bj.Runs),
		}
		if bj.Body != nil {
			b.Body = decodeContainer(bj.Body)
		}
		d.Blocks = append(d.Blocks, b)
	}
	d.Reindex()
	return d, nil
}

func decodeContainer(cj *containerJSON) *document.Container {
	c := &document.Container{ID: document.ContainerID(cj.ID), Ordered: cj.Ordered}
	for _, ij := range cj.Items {
		if ij.Child != nil {
			c.Items = append(c.Items, document.NestedItem(decodeContainer(ij.Child)))
			continue
		}
		c.Items = append(c.Items, document.TextItem(decodeRuns(ij.Runs)...))
	}
	return c
}

func decodeRuns(rjs []runJSON) []document.Run {
	var out []document.Run
	for _, rj := range rjs {
		out = append(out, document.Run{
			Text: rj.Text,
			Style: document.Style{
				Bold:      rj.Bold,
				Italic:    rj.Italic,
				Underline: rj.Underline,
				Color:     rj.Color,
			},
		})
	}
	return out
}

func kindFromString(s string) (document.Kind, error) {
	switch s {
	case "paragraph":
		return document.KindParagraph, nil
	case "heading":
		return document.KindHeading, nil
	case "quote":
		return document.KindQuote, nil
	case "list":
		return document.KindList, nil
	default:
		return 0, fmt.Errorf("unknown block kind %q", s)
	}
}
