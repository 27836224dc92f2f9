// Package snippet renders the located regions of a PDF as image files.
package snippet

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/mgmeyers/pdfannotate/locate"
	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/unipdf/v3/model"
)

type Options struct {
	Dir      string
	BaseName string
	// Format is "jpg" or "png".
	Format  string
	DPI     float64
	Quality int
	// OCR, when set, recognises the text of every snippet.
	OCR *pdfutils.Tesseract
}

func DefaultOptions() Options {
	return Options{
		BaseName: "snippet",
		Format:   "jpg",
		DPI:      120,
		Quality:  90,
	}
}

// Snippet is one rendered occurrence.
type Snippet struct {
	Term       string            `json:"term"`
	Occurrence locate.Occurrence `json:"occurrence"`
	ImagePath  string            `json:"imagePath"`
	OCRText    string            `json:"ocrText,omitempty"`
}

// File renders every occurrence in ms from the PDF at path into opts.Dir.
func File(path string, ms locate.MatchSet, opts Options) ([]Snippet, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}
	defer doc.Close()

	f, err := os.Open(path)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}
	defer f.Close()

	geom, err := openGeometry(f)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}

	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, &pdfutils.WriteError{Path: opts.Dir, Err: err}
	}

	r := &renderer{doc: doc, geom: geom, opts: opts, pages: map[int]image.Image{}}
	ids := map[string]bool{}
	snippets := []Snippet{}

	for _, m := range ms {
		for _, o := range m.Occurrences {
			s, err := r.render(o, ids)
			if err != nil {
				return snippets, err
			}

			s.Term = m.Term
			snippets = append(snippets, s)
		}
	}

	return snippets, nil
}

// openGeometry reads the page dictionaries, which carry the media box and
// rotation that mupdf applies when rendering.
func openGeometry(f *os.File) (*model.PdfReader, error) {
	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, err
	}

	encrypted, err := pdfReader.IsEncrypted()
	if err != nil {
		return nil, err
	}

	if encrypted {
		ok, err := pdfReader.Decrypt([]byte(""))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("document is encrypted")
		}
	}

	return pdfReader, nil
}

type renderer struct {
	doc   *fitz.Document
	geom  *model.PdfReader
	opts  Options
	pages map[int]image.Image
}

func (r *renderer) page(index int) (image.Image, error) {
	if img, ok := r.pages[index]; ok {
		return img, nil
	}

	if index < 0 || index >= r.doc.NumPage() {
		return nil, &pdfutils.PageIndexError{Index: index, NumPages: r.doc.NumPage()}
	}

	img, err := r.doc.ImageDPI(index, r.opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index+1, err)
	}

	r.pages[index] = img

	return img, nil
}

func (r *renderer) render(o locate.Occurrence, ids map[string]bool) (Snippet, error) {
	pageImg, err := r.page(o.Page)
	if err != nil {
		return Snippet{}, err
	}

	page, err := r.geom.GetPage(o.Page + 1)
	if err != nil {
		return Snippet{}, fmt.Errorf("page %d: %w", o.Page+1, err)
	}

	// mupdf renders the page as displayed, so the occurrence is rotated the
	// same way before it is scaled to pixels.
	pageWidth, pageHeight, err := pdfutils.PageSize(page)
	if err != nil {
		return Snippet{}, fmt.Errorf("page %d: %w", o.Page+1, err)
	}

	rect, err := pdfutils.ApplyPageRotation(page, o.Rect())
	if err != nil {
		return Snippet{}, fmt.Errorf("page %d: %w", o.Page+1, err)
	}

	crop := pdfutils.RasterRect(rect, pageWidth, pageHeight, pageImg.Bounds().Dx())

	cropped, err := pdfutils.CropImage(pageImg, crop)
	if err != nil {
		return Snippet{}, fmt.Errorf("page %d: %w", o.Page+1, err)
	}

	name := pdfutils.GetAnnotationID(ids, o.Page, o.X1, o.Y1, r.opts.BaseName) + "." + r.opts.Format
	imagePath := filepath.Join(r.opts.Dir, name)

	if err := pdfutils.WriteImage(cropped, imagePath, r.opts.Format, r.opts.Quality); err != nil {
		return Snippet{}, &pdfutils.WriteError{Path: imagePath, Err: err}
	}

	s := Snippet{Occurrence: o, ImagePath: imagePath}

	if r.opts.OCR != nil {
		s.OCRText, err = r.opts.OCR.OCR(cropped)
		if err != nil {
			return Snippet{}, fmt.Errorf("ocr %s: %w", imagePath, err)
		}
	}

	return s, nil
}
