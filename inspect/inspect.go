// Package inspect lists the annotations of a PDF together with the text they
// cover.
package inspect

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
)

type Options struct {
	// IgnoreBefore drops annotations last modified before this time.
	IgnoreBefore time.Time
	// Sort orders the result by page and position instead of the order the
	// annotations are stored in.
	Sort bool
}

// File lists the annotations of the PDF at path.
func File(path string, opts Options) ([]*pdfutils.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Path: path, Err: err}
	}
	defer f.Close()

	return Reader(f, opts)
}

func Reader(rs io.ReadSeeker, opts Options) ([]*pdfutils.Annotation, error) {
	pdfReader, err := model.NewPdfReader(rs)
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, &pdfutils.DocumentReadError{Err: err}
	}

	ids := map[string]bool{}
	collected := []*pdfutils.Annotation{}

	for i := 0; i < numPages; i++ {
		page, err := pdfReader.GetPage(i + 1)
		if err != nil {
			return nil, &pdfutils.DocumentReadError{Err: fmt.Errorf("page %d: %w", i+1, err)}
		}

		annots, err := processAnnotations(i, page, ids, opts)
		if err != nil {
			return nil, &pdfutils.DocumentReadError{Err: fmt.Errorf("page %d: %w", i+1, err)}
		}

		collected = append(collected, annots...)
	}

	if opts.Sort {
		sort.Stable(pdfutils.ByPosition(collected))
	}

	return collected, nil
}

func processAnnotations(
	pageIndex int,
	page *model.PdfPage,
	ids map[string]bool,
	opts Options,
) ([]*pdfutils.Annotation, error) {
	annots := []*pdfutils.Annotation{}

	annotations, err := page.GetAnnotations()
	if err != nil {
		return nil, err
	}

	if len(annotations) == 0 {
		return annots, nil
	}

	ext, err := extractor.New(page)
	if err != nil {
		return nil, err
	}

	txt, _, _, err := ext.ExtractPageText()
	if err != nil {
		return nil, err
	}

	text := txt.Text()
	marks := txt.Marks().Elements()
	markRects := make([]r2.Rect, len(marks))

	for i, mark := range marks {
		markRects[i] = pdfutils.GetMarkRect(mark)
	}

	for _, annotation := range annotations {
		annotType := pdfutils.GetAnnotationType(annotation.GetContext())

		if annotType == pdfutils.Unsupported || annotType == pdfutils.Popup {
			continue
		}

		date := pdfutils.GetAnnotationDate(annotation)

		if date != nil && date.Before(opts.IgnoreBefore) {
			continue
		}

		segments := []string{}

		for _, anno := range pdfutils.GetAnnotationRects(annotation) {
			if !anno.IsValid() || anno.IsEmpty() {
				continue
			}

			if s := pdfutils.GetTextInRect(text, anno, markRects, marks); s != "" {
				segments = append(segments, s)
			}
		}

		x, y := pdfutils.GetCoordinates(annotation)

		built := &pdfutils.Annotation{
			AnnotatedText: strings.Join(segments, " "),
			Author:        pdfutils.GetAnnotationAuthor(annotation),
			Color:         pdfutils.GetAnnotationColor(annotation),
			ColorCategory: pdfutils.GetAnnotationColorCategory(annotation),
			Comment:       pdfutils.GetAnnotationContents(annotation),
			ID:            pdfutils.GetAnnotationID(ids, pageIndex, x, y, annotType),
			Page:          pageIndex + 1,
			Type:          annotType,
			X:             x,
			Y:             y,
		}

		if date != nil {
			built.Date = date.Format(time.RFC3339)
		}

		annots = append(annots, built)
	}

	return annots, nil
}
