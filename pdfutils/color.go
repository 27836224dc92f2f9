package pdfutils

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mgmeyers/unipdf/v3/core"
	"github.com/mgmeyers/unipdf/v3/model"
)

var (
	Red    = colorful.Color{R: 1, G: 0, B: 0}
	Yellow = colorful.Color{R: 1, G: 1, B: 0}
)

// ParseColor accepts "#rrggbb" or "#rgb".
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}

	return c, nil
}

// ColorToPDFObj builds the DeviceRGB array used by an annotation's /C entry.
func ColorToPDFObj(c colorful.Color) *core.PdfObjectArray {
	c = c.Clamped()
	return core.MakeArrayFromFloats([]float64{c.R, c.G, c.B})
}

func pdfObjToColor(c core.PdfObject) (colorful.Color, bool) {
	if c == nil {
		return colorful.Color{}, false
	}

	objArr, ok := core.GetArray(c)
	if !ok {
		return colorful.Color{}, false
	}

	clr, err := objArr.ToFloat64Array()
	if err != nil || len(clr) < 3 {
		return colorful.Color{}, false
	}

	return colorful.Color{R: clr[0], G: clr[1], B: clr[2]}, true
}

func PDFObjToHex(c core.PdfObject) string {
	color, ok := pdfObjToColor(c)
	if !ok {
		return ""
	}

	return color.Clamped().Hex()
}

func annotationColorObj(annotation *model.PdfAnnotation) core.PdfObject {
	if annotation == nil {
		return nil
	}

	switch ctx := annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight:
		return ctx.C
	case *model.PdfAnnotationStrikeOut:
		return ctx.C
	case *model.PdfAnnotationUnderline:
		return ctx.C
	case *model.PdfAnnotationSquare:
		return ctx.C
	case *model.PdfAnnotationText:
		return ctx.C
	}

	return nil
}

func GetAnnotationColor(annotation *model.PdfAnnotation) string {
	return PDFObjToHex(annotationColorObj(annotation))
}

func GetAnnotationColorCategory(annotation *model.PdfAnnotation) string {
	return PDFObjToColorCategory(annotationColorObj(annotation))
}

func PDFObjToColorCategory(c core.PdfObject) string {
	color, ok := pdfObjToColor(c)
	if !ok {
		return ""
	}

	return ColorCategory(color)
}

// ColorCategory buckets a colour into a coarse name based on HSL.
func ColorCategory(color colorful.Color) string {
	h, s, l := color.Hsl()

	if l < 0.12 {
		return "Black"
	}
	if l > 0.98 {
		return "White"
	}
	if s < 0.2 {
		return "Gray"
	}
	if h < 15 {
		return "Red"
	}
	if h < 45 {
		return "Orange"
	}
	if h < 65 {
		return "Yellow"
	}
	if h < 170 {
		return "Green"
	}
	if h < 190 {
		return "Cyan"
	}
	if h < 263 {
		return "Blue"
	}
	if h < 280 {
		return "Purple"
	}
	if h < 335 {
		return "Magenta"
	}
	return "Red"
}
