// Package pdftest writes small, uncompressed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Line is a run of Helvetica text with its baseline origin at (X, Y).
type Line struct {
	Text string
	X, Y float64
	Size float64
}

// Page is a page of the given size holding lines of text. Rotate is the
// page's /Rotate entry in degrees. A page with a Bookmark gets an outline
// item of that title pointing at it.
type Page struct {
	Width, Height float64
	Rotate        int
	Bookmark      string
	Lines         []Line
}

// Letter returns a US letter page with the given lines.
func Letter(lines ...Line) Page {
	return Page{Width: 612, Height: 792, Lines: lines}
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// Build renders pages into a complete PDF file.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	offsets := []int{}

	// Object numbers: 1 catalog, 2 page tree, 3 font, then a page and its
	// content stream for every page, then the outline root and its items.
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	outlineRoot := 4 + 2*len(pages)
	bookmarks := []int{}
	for i, p := range pages {
		if p.Bookmark != "" {
			bookmarks = append(bookmarks, i)
		}
	}

	if len(bookmarks) > 0 {
		obj(fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /Outlines %d 0 R >>", outlineRoot))
	} else {
		obj("<< /Type /Catalog /Pages 2 0 R >>")
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		var content strings.Builder
		for _, l := range p.Lines {
			size := l.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, l.X, l.Y, escaper.Replace(l.Text))
		}

		obj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Rotate %d /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			p.Width, p.Height, p.Rotate, 5+2*i,
		))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
	}

	if len(bookmarks) > 0 {
		first, last := outlineRoot+1, outlineRoot+len(bookmarks)
		obj(fmt.Sprintf("<< /Type /Outlines /First %d 0 R /Last %d 0 R /Count %d >>", first, last, len(bookmarks)))

		for n, i := range bookmarks {
			item := fmt.Sprintf("<< /Title (%s) /Parent %d 0 R /Dest [%d 0 R /Fit]", escaper.Replace(pages[i].Bookmark), outlineRoot, 4+2*i)
			if n > 0 {
				item += fmt.Sprintf(" /Prev %d 0 R", first+n-1)
			}
			if n < len(bookmarks)-1 {
				item += fmt.Sprintf(" /Next %d 0 R", first+n+1)
			}
			obj(item + " >>")
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// WriteFile builds pages into name under a fresh temporary directory and
// returns the file's path.
func WriteFile(t testing.TB, name string, pages ...Page) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return path
}
