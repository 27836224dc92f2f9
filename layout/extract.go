package layout

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
)

var errEncrypted = errors.New("document is encrypted")

// Extract reads every page of the PDF in rs and returns their layout trees
// in page order. Any failure to parse the document or extract a page's text
// is returned as a *pdfutils.DocumentReadError.
func Extract(rs io.ReadSeeker, cfg Config) ([]*Page, error) {
	pdfReader, err := model.NewPdfReader(rs)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}

	if err := decrypt(pdfReader); err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}

	pages := make([]*Page, 0, numPages)

	for i := 0; i < numPages; i++ {
		page, err := extractPage(pdfReader, i, cfg)
		if err != nil {
			return nil, &pdfutils.DocumentReadError{Err: fmt.Errorf("page %d: %w", i+1, err)}
		}

		pages = append(pages, page)
	}

	return pages, nil
}

// ExtractFile is Extract for a file on disk.
func ExtractFile(path string, cfg Config) ([]*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}
	defer f.Close()

	pages, err := Extract(f, cfg)

	var readErr *pdfutils.DocumentReadError
	if errors.As(err, &readErr) {
		readErr.Path = path
	}

	return pages, err
}

func decrypt(pdfReader *model.PdfReader) error {
	encrypted, err := pdfReader.IsEncrypted()
	if err != nil {
		return err
	}

	if !encrypted {
		return nil
	}

	// Documents with only an owner password open with an empty user password.
	ok, err := pdfReader.Decrypt([]byte(""))
	if err != nil {
		return err
	}

	if !ok {
		return errEncrypted
	}

	return nil
}

func extractPage(pdfReader *model.PdfReader, index int, cfg Config) (*Page, error) {
	page, err := pdfReader.GetPage(index + 1)
	if err != nil {
		return nil, err
	}

	mbox, err := page.GetMediaBox()
	if err != nil {
		return nil, err
	}

	ext, err := extractor.New(page)
	if err != nil {
		return nil, err
	}

	txt, _, _, err := ext.ExtractPageText()
	if err != nil {
		return nil, err
	}

	return Build(index, mbox.Width(), mbox.Height(), txt.Text(), txt.Marks().Elements(), cfg), nil
}
