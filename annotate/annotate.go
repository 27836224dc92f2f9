// Package annotate adds a highlight and a comment marker to a PDF at every
// located occurrence of a search term.
package annotate

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mgmeyers/pdfannotate/layout"
	"github.com/mgmeyers/pdfannotate/locate"
	"github.com/mgmeyers/pdfannotate/pdfutils"
)

// Highlight is a highlight annotation. Rect uses a top-left origin.
type Highlight struct {
	Rect  r2.Rect
	Color colorful.Color
	Title string
	Date  time.Time
}

// Comment is a point-anchored text annotation with a popup. Anchor and
// Popup use a top-left origin; Popup is the popup's top-left corner.
type Comment struct {
	Anchor   r2.Point
	Popup    r2.Point
	Contents string
	Title    string
	Color    colorful.Color
	Date     time.Time
}

// Page is one page of a document open for mutation.
type Page interface {
	Height() float64
	AddHighlight(Highlight) error
	AddComment(Comment) error
}

// Document is a PDF open for mutation.
type Document interface {
	NumPages() int
	// Page returns the page at the zero-based index.
	Page(index int) (Page, error)
}

type Options struct {
	HighlightColor colorful.Color
	CommentColor   colorful.Color
	Title          string
	// PopupOffset is added to a comment's anchor to place its popup.
	PopupOffset r2.Point
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		HighlightColor: pdfutils.Yellow,
		CommentColor:   pdfutils.Red,
		Title:          "Comment",
		PopupOffset:    r2.Point{X: 20, Y: 20},
		Now:            time.Now,
	}
}

// ToTopLeft converts an occurrence's box from the bottom-left origin of PDF
// user space to a top-left origin on a page of the given height.
func ToTopLeft(o locate.Occurrence, height float64) r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: o.X1, Hi: o.X2},
		Y: r1.Interval{Lo: height - o.Y2, Hi: height - o.Y1},
	}
}

// Apply annotates doc in MatchSet order: terms in order, then each term's
// occurrences in order. It returns the first error without rolling back
// annotations already added.
func Apply(doc Document, ms locate.MatchSet, opts Options) error {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	date := now()

	for _, m := range ms {
		for _, o := range m.Occurrences {
			if o.Page < 0 || o.Page >= doc.NumPages() {
				return &pdfutils.PageIndexError{Index: o.Page, NumPages: doc.NumPages()}
			}

			page, err := doc.Page(o.Page)
			if err != nil {
				return err
			}

			rect := ToTopLeft(o, page.Height())

			if err := page.AddHighlight(Highlight{
				Rect:  rect,
				Color: opts.HighlightColor,
				Title: opts.Title,
				Date:  date,
			}); err != nil {
				return err
			}

			anchor := rect.Lo()

			if err := page.AddComment(Comment{
				Anchor:   anchor,
				Popup:    anchor.Add(opts.PopupOffset),
				Contents: m.Term,
				Title:    opts.Title,
				Color:    opts.CommentColor,
				Date:     date,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// File annotates a fresh copy of src with ms and writes it to dst. src is
// never modified.
func File(src, dst string, ms locate.MatchSet, opts Options) error {
	doc, err := Open(src)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := Apply(doc, ms, opts); err != nil {
		return err
	}

	return doc.Save(dst)
}

// Run locates terms in src and writes the annotated copy to dst.
func Run(src, dst string, terms []string, cfg layout.Config, opts Options) (locate.MatchSet, error) {
	ms, err := locate.File(src, terms, cfg)
	if err != nil {
		return nil, err
	}

	if err := File(src, dst, ms, opts); err != nil {
		return nil, err
	}

	return ms, nil
}

// DefaultOutputPath swaps the extension of src for ".annotated.pdf".
func DefaultOutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".annotated.pdf"
}
