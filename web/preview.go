package web

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/mgmeyers/pdfannotate/pdfutils"
)

// FitzPreview rasterises the first page with MuPDF.
type FitzPreview struct {
	DPI float64
}

func (p FitzPreview) Preview(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, &pdfutils.DocumentReadError{Err: fmt.Errorf("document has no pages")}
	}

	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("render first page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	return buf.Bytes(), nil
}
