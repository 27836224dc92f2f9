// Package locate finds the text boxes and lines of a PDF that contain given
// search strings.
package locate

import (
	"io"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/pdfannotate/layout"
)

// Occurrence is the bounding box of a matching layout node, in PDF user space
// (origin bottom left), and the zero-based page it was found on.
type Occurrence struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Page int     `json:"page"`
}

func (o Occurrence) Rect() r2.Rect {
	return r2.RectFromPoints(r2.Point{X: o.X1, Y: o.Y1}, r2.Point{X: o.X2, Y: o.Y2})
}

// Match holds the occurrences of one search term in document order.
type Match struct {
	Term        string       `json:"term"`
	Occurrences []Occurrence `json:"occurrences"`
}

// MatchSet has one Match per search term, in the order the terms were given.
type MatchSet []Match

// Count returns the total number of occurrences across all terms.
func (ms MatchSet) Count() int {
	n := 0
	for _, m := range ms {
		n += len(m.Occurrences)
	}
	return n
}

// Locate walks every page's layout tree and records, for each term, the box
// of every text box or text line whose trimmed text contains the term.
//
// A text box and the lines inside it are matched independently, so a term
// found in a line of a multi-line box is reported for both. An empty term
// matches every text node.
func Locate(pages []*layout.Page, terms []string) MatchSet {
	ms := make(MatchSet, len(terms))
	for i, term := range terms {
		ms[i] = Match{Term: term, Occurrences: []Occurrence{}}
	}

	for _, page := range pages {
		layout.Walk(page.Root, func(n *layout.Node) {
			switch n.Kind {
			case layout.TextBox, layout.TextLine:
			default:
				return
			}

			text := strings.TrimSpace(n.Text)

			for i := range ms {
				if strings.Contains(text, ms[i].Term) {
					ms[i].Occurrences = append(ms[i].Occurrences, Occurrence{
						X1:   n.BBox.X.Lo,
						Y1:   n.BBox.Y.Lo,
						X2:   n.BBox.X.Hi,
						Y2:   n.BBox.Y.Hi,
						Page: page.Index,
					})
				}
			}
		})
	}

	return ms
}

// Reader extracts the layout of the PDF in rs and locates terms in it.
func Reader(rs io.ReadSeeker, terms []string, cfg layout.Config) (MatchSet, error) {
	pages, err := layout.Extract(rs, cfg)
	if err != nil {
		return nil, err
	}

	return Locate(pages, terms), nil
}

// File is Reader for a file on disk.
func File(path string, terms []string, cfg layout.Config) (MatchSet, error) {
	pages, err := layout.ExtractFile(path, cfg)
	if err != nil {
		return nil, err
	}

	return Locate(pages, terms), nil
}
