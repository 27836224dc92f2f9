package pdfutils

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/mgmeyers/unipdf/v3/core"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
)

// ApplyPageRotation maps rect from the page's user space into the space of
// the page as displayed, with its /Rotate applied clockwise. Both spaces
// have their origin at the bottom left.
func ApplyPageRotation(page *model.PdfPage, rect r2.Rect) (r2.Rect, error) {
	angle := pageRotation(page)
	if angle == 0 {
		return rect, nil
	}

	mbox, err := page.GetMediaBox()
	if err != nil {
		return r2.Rect{}, err
	}

	width := mbox.Width()
	height := mbox.Height()
	x, y := rect.X, rect.Y

	switch angle {
	case 90:
		return r2.Rect{X: y, Y: flip(x, width)}, nil
	case 270:
		return r2.Rect{X: flip(y, height), Y: x}, nil
	default:
		return r2.Rect{X: flip(x, width), Y: flip(y, height)}, nil
	}
}

// flip mirrors i within [0, size].
func flip(i r1.Interval, size float64) r1.Interval {
	return r1.Interval{Lo: size - i.Hi, Hi: size - i.Lo}
}

// pageRotation returns the page's /Rotate normalised to 0, 90, 180 or 270.
func pageRotation(page *model.PdfPage) int64 {
	if page.Rotate == nil {
		return 0
	}

	angle := (*page.Rotate%360 + 360) % 360

	return angle - angle%90
}

func IsWithinOverlapThresh(annot r2.Rect, mark r2.Rect) bool {
	markSize := getArea(mark)
	if markSize == 0 {
		return false
	}

	intersect := getArea(annot.Intersection(mark))

	return intersect/markSize >= 0.5
}

func getArea(r r2.Rect) float64 {
	if r.IsEmpty() {
		return 0
	}

	s := r.Size()
	return s.X * s.Y
}

// RectFromPdf converts a unipdf rectangle into an r2.Rect, normalising
// inverted corners.
func RectFromPdf(r model.PdfRectangle) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.Llx, Y: r.Lly},
		r2.Point{X: r.Urx, Y: r.Ury},
	)
}

func GetMarkRect(mark extractor.TextMark) r2.Rect {
	return RectFromPdf(mark.BBox)
}

// RectToPdfObj encodes r as a PDF rectangle array [llx lly urx ury].
func RectToPdfObj(r r2.Rect) *core.PdfObjectArray {
	return core.MakeArrayFromFloats([]float64{r.X.Lo, r.Y.Lo, r.X.Hi, r.Y.Hi})
}

// QuadPointsFromRect encodes r as a single quadrilateral in the order
// viewers expect for text markup: upper left, upper right, lower left,
// lower right.
func QuadPointsFromRect(r r2.Rect) *core.PdfObjectArray {
	return core.MakeArrayFromFloats([]float64{
		r.X.Lo, r.Y.Hi,
		r.X.Hi, r.Y.Hi,
		r.X.Lo, r.Y.Lo,
		r.X.Hi, r.Y.Lo,
	})
}

func GetAnnotationRects(annotation *model.PdfAnnotation) []r2.Rect {
	qp := GetQuadPoint(annotation)

	if qp == nil {
		return nil
	}

	coords, err := qp.GetAsFloat64Slice()
	if err != nil {
		return nil
	}

	coordHolder := []float64{}
	ptHolder := []r2.Point{}
	rects := []r2.Rect{}

	for _, coord := range coords {
		coordHolder = append(coordHolder, coord)

		if len(coordHolder) == 2 {
			pt := r2.Point{X: coordHolder[0], Y: coordHolder[1]}
			ptHolder = append(ptHolder, pt)

			coordHolder = []float64{}

			if len(ptHolder) == 4 {
				r := r2.RectFromPoints(ptHolder[0], ptHolder[1], ptHolder[2], ptHolder[3])
				rects = append(rects, r)
				ptHolder = []r2.Point{}
			}
		}
	}

	return rects
}

func GetQuadPoint(annotation *model.PdfAnnotation) *core.PdfObjectArray {
	var qp core.PdfObject

	switch ctx := annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight:
		qp = ctx.QuadPoints
	case *model.PdfAnnotationStrikeOut:
		qp = ctx.QuadPoints
	case *model.PdfAnnotationUnderline:
		qp = ctx.QuadPoints
	}

	if qp == nil {
		return nil
	}

	arr, ok := core.GetArray(qp)
	if !ok {
		return nil
	}

	return arr
}

func GetCoordinates(annotation *model.PdfAnnotation) (float64, float64) {
	objArr, ok := core.GetArray(annotation.Rect)
	if !ok {
		return 0.0, 0.0
	}

	annotRect, err := objArr.ToFloat64Array()
	if err != nil || len(annotRect) < 4 {
		return 0.0, 0.0
	}

	x := math.Round(math.Min(annotRect[0], annotRect[2])*100) / 100
	y := math.Round(math.Min(annotRect[1], annotRect[3])*100) / 100

	return x, y
}

// UnionRects returns the smallest rectangle covering every valid, non-empty
// rectangle in rects. The result is empty when none qualify.
func UnionRects(rects []r2.Rect) r2.Rect {
	bound := r2.EmptyRect()

	for _, r := range rects {
		if !r.IsValid() || r.IsEmpty() {
			continue
		}

		bound = bound.Union(r)
	}

	return bound
}
