package annotate

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/unipdf/v3/core"
	"github.com/mgmeyers/unipdf/v3/model"
)

const (
	iconSize    = 20.0
	popupWidth  = 200.0
	popupHeight = 100.0

	// Print flag of the annotation /F entry.
	flagPrint = 4
)

var errSameFile = errors.New("output path is the input file")

// PdfDocument is a PDF opened with unipdf for adding annotations.
type PdfDocument struct {
	path      string
	f         *os.File
	reader    *model.PdfReader
	encrypted bool
	pages     []*PdfPage
}

// Open opens the PDF at path for annotation. The file stays open until
// Close.
func Open(path string) (*PdfDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}

	doc, err := open(f)
	if err != nil {
		f.Close()
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}

	doc.path = path

	return doc, nil
}

func open(f *os.File) (*PdfDocument, error) {
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

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	return &PdfDocument{
		f:         f,
		reader:    pdfReader,
		encrypted: encrypted,
		pages:     make([]*PdfPage, numPages),
	}, nil
}

func (d *PdfDocument) NumPages() int {
	return len(d.pages)
}

func (d *PdfDocument) Page(index int) (Page, error) {
	return d.page(index)
}

func (d *PdfDocument) page(index int) (*PdfPage, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, &pdfutils.PageIndexError{Index: index, NumPages: len(d.pages)}
	}

	if d.pages[index] != nil {
		return d.pages[index], nil
	}

	page, err := d.reader.GetPage(index + 1)
	if err != nil {
		return nil, err
	}

	mbox, err := page.GetMediaBox()
	if err != nil {
		return nil, err
	}

	d.pages[index] = &PdfPage{page: page, height: mbox.Height()}

	return d.pages[index], nil
}

// Save writes the document, with every annotation added so far, to path.
// The annotated pages are appended as an incremental update over the
// source, which keeps its outline, names tree and forms. The file is written
// to a temporary sibling first and renamed into place, so a failed save
// leaves nothing at path.
func (d *PdfDocument) Save(path string) error {
	if sameFile(d.path, path) {
		return &pdfutils.WriteError{Path: path, Err: errSameFile}
	}

	write := d.appendTo
	if d.encrypted {
		write = d.rewriteTo
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &pdfutils.WriteError{Path: path, Err: err}
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &pdfutils.WriteError{Path: path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &pdfutils.WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &pdfutils.WriteError{Path: path, Err: err}
	}

	return nil
}

func (d *PdfDocument) appendTo(w io.Writer) error {
	appender, err := model.NewPdfAppender(d.reader)
	if err != nil {
		return err
	}

	// Pages never loaded carry no new annotations.
	for _, p := range d.pages {
		if p != nil {
			appender.UpdatePage(p.page)
		}
	}

	return appender.Write(w)
}

// rewriteTo writes every page into a fresh document. The appender cannot
// update an encrypted source, so decrypted documents are saved this way.
func (d *PdfDocument) rewriteTo(w io.Writer) error {
	writer := model.NewPdfWriter()

	for i := range d.pages {
		p, err := d.page(i)
		if err != nil {
			return err
		}

		if err := writer.AddPage(p.page); err != nil {
			return err
		}
	}

	if d.reader.AcroForm != nil {
		if err := writer.SetForms(d.reader.AcroForm); err != nil {
			return err
		}
	}

	return writer.Write(w)
}

func (d *PdfDocument) Close() error {
	return d.f.Close()
}

func sameFile(a, b string) bool {
	if a == "" {
		return false
	}

	sa, err := os.Stat(a)
	if err != nil {
		return false
	}

	sb, err := os.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(sa, sb)
}

// PdfPage adds annotations to a unipdf page. It takes rectangles with a
// top-left origin and writes them in PDF user space.
type PdfPage struct {
	page   *model.PdfPage
	height float64
}

func (p *PdfPage) Height() float64 {
	return p.height
}

func (p *PdfPage) toUser(r r2.Rect) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.X.Lo, Y: p.height - r.Y.Hi},
		r2.Point{X: r.X.Hi, Y: p.height - r.Y.Lo},
	)
}

func (p *PdfPage) AddHighlight(h Highlight) error {
	rect := p.toUser(h.Rect)

	annot := model.NewPdfAnnotationHighlight()
	annot.Rect = pdfutils.RectToPdfObj(rect)
	annot.QuadPoints = pdfutils.QuadPointsFromRect(rect)
	annot.C = pdfutils.ColorToPDFObj(h.Color)
	annot.F = core.MakeInteger(flagPrint)
	annot.M = core.MakeString(pdfutils.FormatDate(h.Date))
	annot.CreationDate = core.MakeString(pdfutils.FormatDate(h.Date))

	if h.Title != "" {
		annot.T = textString(h.Title)
	}

	p.page.AddAnnotation(annot.PdfAnnotation)

	return nil
}

func (p *PdfPage) AddComment(c Comment) error {
	icon := p.toUser(r2.RectFromPoints(c.Anchor, c.Anchor.Add(r2.Point{X: iconSize, Y: iconSize})))
	popupRect := p.toUser(r2.RectFromPoints(c.Popup, c.Popup.Add(r2.Point{X: popupWidth, Y: popupHeight})))

	text := model.NewPdfAnnotationText()
	text.Rect = pdfutils.RectToPdfObj(icon)
	text.Contents = textString(c.Contents)
	text.C = pdfutils.ColorToPDFObj(c.Color)
	text.F = core.MakeInteger(flagPrint)
	text.M = core.MakeString(pdfutils.FormatDate(c.Date))
	text.CreationDate = core.MakeString(pdfutils.FormatDate(c.Date))
	text.Name = core.MakeName("Comment")
	text.Open = core.MakeBool(false)

	if c.Title != "" {
		text.T = textString(c.Title)
	}

	popup := model.NewPdfAnnotationPopup()
	popup.Rect = pdfutils.RectToPdfObj(popupRect)
	popup.Parent = text.GetContainingPdfObject()
	popup.Open = core.MakeBool(false)
	text.Popup = popup

	p.page.AddAnnotation(text.PdfAnnotation)
	p.page.AddAnnotation(popup.PdfAnnotation)

	return nil
}

// textString encodes s as a PDF text string, using UTF-16BE when it does not
// fit in ASCII.
func textString(s string) *core.PdfObjectString {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return core.MakeEncodedString(s, true)
		}
	}

	return core.MakeString(s)
}
