package pdfutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/unipdf/v3/core"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
)

const dateFormat = "D:20060102150405+07'00'"
const dateFormatZ = "D:20060102150405Z07'00'"
const dateFormatNoZ = "D:20060102150405"

func ParseDate(dateStr string) *time.Time {
	date, err := time.Parse(dateFormat, dateStr)

	if err != nil {
		date, err = time.Parse(dateFormatZ, dateStr)
	}

	if err != nil {
		split := strings.Split(dateStr, "Z")
		date, err = time.Parse(dateFormatNoZ, split[0])
	}

	if err != nil {
		return nil
	}

	return &date
}

// FormatDate renders t as a PDF date string in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateFormatNoZ) + "Z"
}

func GetAnnotationDate(annot *model.PdfAnnotation) *time.Time {
	dateStr, ok := core.GetString(annot.M)
	if !ok {
		return nil
	}

	return ParseDate(dateStr.String())
}

func GetAnnotationType(t interface{}) string {
	switch t.(type) {
	case *model.PdfAnnotationHighlight:
		return Highlight
	case *model.PdfAnnotationStrikeOut:
		return Strike
	case *model.PdfAnnotationUnderline:
		return Underline
	case *model.PdfAnnotationSquare:
		return Rectangle
	case *model.PdfAnnotationText:
		return Text
	case *model.PdfAnnotationPopup:
		return Popup
	default:
		return Unsupported
	}
}

// GetAnnotationAuthor returns the /T entry of markup annotations.
func GetAnnotationAuthor(annotation *model.PdfAnnotation) string {
	var t core.PdfObject

	switch ctx := annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight:
		t = ctx.T
	case *model.PdfAnnotationStrikeOut:
		t = ctx.T
	case *model.PdfAnnotationUnderline:
		t = ctx.T
	case *model.PdfAnnotationSquare:
		t = ctx.T
	case *model.PdfAnnotationText:
		t = ctx.T
	}

	s, ok := core.GetString(t)
	if !ok {
		return ""
	}

	return RemoveNul(s.Decoded())
}

func GetAnnotationContents(annotation *model.PdfAnnotation) string {
	s, ok := core.GetString(annotation.Contents)
	if !ok {
		return ""
	}

	return RemoveNul(s.Decoded())
}

func RemoveNul(str string) string {
	return strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar {
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, str)
}

// GetTextInRect assembles the text of the marks covered by annotRect,
// re-inserting the word breaks the extractor put between them.
func GetTextInRect(text string, annotRect r2.Rect, markRects []r2.Rect, marks []extractor.TextMark) string {
	segment := ""

	for i, mark := range markRects {
		if !mark.IsValid() || mark.IsEmpty() {
			continue
		}

		if annotRect.Intersects(mark) && IsWithinOverlapThresh(annotRect, mark) {
			if len(marks[i].Text) > 0 && marks[i].Offset > 0 && marks[i].Offset <= len(text) && len(segment) > 0 {
				prevChar := text[marks[i].Offset-1]

				if prevChar == ' ' || prevChar == '\n' {
					segment += " " + marks[i].Text
					continue
				}

			}

			segment += marks[i].Text
			continue
		}
	}

	return CondenseSpaces(strings.TrimSpace(segment))
}

func GetAnnotationID(ids map[string]bool, pageIndex int, x float64, y float64, annotType string) string {
	xInt := int(x)
	yInt := int(y)
	id := fmt.Sprintf("%s-p%dx%dy%d", annotType, pageIndex+1, xInt, yInt)
	_, ok := ids[id]

	for i := 1; ok; i++ {
		id = fmt.Sprintf("%s-p%dx%dy%d-%d", annotType, pageIndex+1, xInt, yInt, i)
		_, ok = ids[id]
	}

	ids[id] = true

	return id
}

var nlAndSpace = regexp.MustCompile(`[\n\s]+`)

func CondenseSpaces(str string) string {
	return nlAndSpace.ReplaceAllString(str, " ")
}

// PageSize returns the width and height of the page as displayed, swapping
// the media box sides for pages rotated by 90 or 270 degrees.
func PageSize(page *model.PdfPage) (float64, float64, error) {
	mbox, err := page.GetMediaBox()
	if err != nil {
		return 0, 0, err
	}

	width := mbox.Width()
	height := mbox.Height()

	if angle := pageRotation(page); angle == 90 || angle == 270 {
		width, height = height, width
	}

	return width, height, nil
}
