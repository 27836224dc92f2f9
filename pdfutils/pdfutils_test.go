package pdfutils

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
)

func rect(x1, y1, x2, y2 float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: x1, Y: y1}, r2.Point{X: x2, Y: y2})
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0000")
	if err != nil {
		t.Fatal(err)
	}

	if c != Red {
		t.Errorf("ParseColor(#ff0000) = %v, want %v", c, Red)
	}

	if _, err := ParseColor("red"); err == nil {
		t.Error("expected error for a color name")
	}
}

func TestColorToPDFObjRoundTrip(t *testing.T) {
	obj := ColorToPDFObj(Yellow)

	if got := PDFObjToHex(obj); got != "#ffff00" {
		t.Errorf("PDFObjToHex = %q, want #ffff00", got)
	}

	if got := PDFObjToColorCategory(obj); got != "Yellow" {
		t.Errorf("PDFObjToColorCategory = %q, want Yellow", got)
	}

	if got := PDFObjToHex(nil); got != "" {
		t.Errorf("PDFObjToHex(nil) = %q", got)
	}
}

func TestColorCategory(t *testing.T) {
	tests := map[string]string{
		"#000000": "Black",
		"#ffffff": "White",
		"#808080": "Gray",
		"#ff0000": "Red",
		"#ff8800": "Orange",
		"#00ff00": "Green",
		"#00ffff": "Cyan",
		"#0000ff": "Blue",
		"#ff00ff": "Magenta",
	}

	for hex, want := range tests {
		c, err := ParseColor(hex)
		if err != nil {
			t.Fatal(err)
		}

		if got := ColorCategory(c); got != want {
			t.Errorf("ColorCategory(%s) = %q, want %q", hex, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2022, 3, 1, 12, 30, 5, 0, time.UTC)

	for _, s := range []string{
		"D:20220301123005Z",
		"D:20220301123005",
		FormatDate(want),
	} {
		got := ParseDate(s)
		if got == nil {
			t.Errorf("ParseDate(%q) = nil", s)
			continue
		}

		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}

	if ParseDate("yesterday") != nil {
		t.Error("expected nil for garbage")
	}
}

func TestGetAnnotationID(t *testing.T) {
	ids := map[string]bool{}

	got := []string{
		GetAnnotationID(ids, 0, 72.4, 700.9, Highlight),
		GetAnnotationID(ids, 0, 72.1, 700.2, Highlight),
		GetAnnotationID(ids, 0, 72, 700, Text),
		GetAnnotationID(ids, 2, 72, 700, Highlight),
	}

	want := []string{
		"highlight-p1x72y700",
		"highlight-p1x72y700-1",
		"text-p1x72y700",
		"highlight-p3x72y700",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveNulAndCondenseSpaces(t *testing.T) {
	if got := RemoveNul("a\x00b�c"); got != "abc" {
		t.Errorf("RemoveNul = %q", got)
	}

	if got := CondenseSpaces("a \n\t b"); got != "a b" {
		t.Errorf("CondenseSpaces = %q", got)
	}
}

func TestGetTextInRect(t *testing.T) {
	text := "Steuer recht\nnext"
	marks := []extractor.TextMark{}

	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' {
			continue
		}

		y := 700.0
		x := 72 + float64(i)*6
		if i > 12 {
			y = 680
			x = 72 + float64(i-13)*6
		}

		marks = append(marks, extractor.TextMark{
			Text:   text[i : i+1],
			Offset: i,
			BBox:   model.PdfRectangle{Llx: x, Lly: y, Urx: x + 6, Ury: y + 10},
		})
	}

	markRects := make([]r2.Rect, len(marks))
	for i, m := range marks {
		markRects[i] = GetMarkRect(m)
	}

	got := GetTextInRect(text, rect(70, 699, 200, 711), markRects, marks)
	if got != "Steuer recht" {
		t.Errorf("GetTextInRect = %q, want %q", got, "Steuer recht")
	}
}

func TestUnionRects(t *testing.T) {
	got := UnionRects([]r2.Rect{
		rect(10, 10, 20, 20),
		r2.EmptyRect(),
		rect(30, 5, 40, 15),
	})

	if want := rect(10, 5, 40, 20); !got.ApproxEqual(want) {
		t.Errorf("UnionRects = %v, want %v", got, want)
	}

	if !UnionRects(nil).IsEmpty() {
		t.Error("expected empty union for no rects")
	}
}

func TestIsWithinOverlapThresh(t *testing.T) {
	mark := rect(0, 0, 10, 10)

	if !IsWithinOverlapThresh(rect(0, 0, 6, 10), mark) {
		t.Error("60% overlap should pass")
	}

	if IsWithinOverlapThresh(rect(0, 0, 4, 10), mark) {
		t.Error("40% overlap should fail")
	}

	if IsWithinOverlapThresh(mark, rect(5, 5, 5, 5)) {
		t.Error("zero-area mark should fail")
	}
}

func TestQuadPointsFromRect(t *testing.T) {
	got, err := QuadPointsFromRect(rect(1, 2, 3, 4)).ToFloat64Array()
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{1, 4, 3, 4, 1, 2, 3, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quad points mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyPageRotation(t *testing.T) {
	box := &model.PdfRectangle{Llx: 0, Lly: 0, Urx: 600, Ury: 800}
	in := rect(10, 20, 30, 40)

	tests := []struct {
		angle int64
		want  r2.Rect
	}{
		{0, rect(10, 20, 30, 40)},
		{90, rect(20, 570, 40, 590)},
		{180, rect(570, 760, 590, 780)},
		{270, rect(760, 10, 780, 30)},
		{-90, rect(760, 10, 780, 30)},
		{450, rect(20, 570, 40, 590)},
	}

	for _, tt := range tests {
		angle := tt.angle
		page := &model.PdfPage{MediaBox: box, Rotate: &angle}

		got, err := ApplyPageRotation(page, in)
		if err != nil {
			t.Fatalf("rotate %d: %v", tt.angle, err)
		}

		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("rotate %d mismatch (-want +got):\n%s", tt.angle, diff)
		}
	}
}

func TestPageSize(t *testing.T) {
	box := &model.PdfRectangle{Llx: 0, Lly: 0, Urx: 612, Ury: 792}

	tests := []struct {
		angle         int64
		width, height float64
	}{
		{0, 612, 792},
		{90, 792, 612},
		{180, 612, 792},
		{270, 792, 612},
	}

	for _, tt := range tests {
		angle := tt.angle

		width, height, err := PageSize(&model.PdfPage{MediaBox: box, Rotate: &angle})
		if err != nil {
			t.Fatal(err)
		}

		if width != tt.width || height != tt.height {
			t.Errorf("rotate %d: size = %vx%v, want %vx%v", tt.angle, width, height, tt.width, tt.height)
		}
	}

	if _, _, err := PageSize(&model.PdfPage{}); err == nil {
		t.Error("expected error for a page without a media box")
	}
}

func TestRasterRect(t *testing.T) {
	got := RasterRect(rect(72, 700, 168, 712), 612, 792, 1224)

	want := image.Rect(144, 160, 336, 184)
	if got != want {
		t.Errorf("RasterRect = %v, want %v", got, want)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	readErr := &DocumentReadError{Path: "a.pdf", Err: fs.ErrNotExist}
	if !errors.Is(readErr, fs.ErrNotExist) {
		t.Error("DocumentReadError does not unwrap")
	}

	writeErr := &WriteError{Path: "b.pdf", Err: fs.ErrPermission}
	if !errors.Is(fmt.Errorf("wrapped: %w", writeErr), fs.ErrPermission) {
		t.Error("WriteError does not unwrap")
	}

	if got := (&PageIndexError{Index: 3, NumPages: 2}).Error(); got != "page index 3 out of range [0, 2)" {
		t.Errorf("PageIndexError = %q", got)
	}
}

func TestTesseractOCR_EncodeError(t *testing.T) {
	path, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false binary")
	}

	// png refuses to encode an empty image, and the failing binary never
	// reads its input.
	_, err = Tesseract{Path: path, Lang: "eng"}.OCR(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "encode image for tesseract") {
		t.Errorf("error does not report the encode failure: %v", err)
	}
}
