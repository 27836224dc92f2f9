package layout

import (
	"sort"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/unipdf/v3/extractor"
)

// Config controls how lines are grouped into boxes.
type Config struct {
	// VerticalGapThreshold is the gap between two lines, as a multiple of the
	// upper line's height, above which the lower line starts a new box.
	VerticalGapThreshold float64
}

func DefaultConfig() Config {
	return Config{VerticalGapThreshold: 1.5}
}

type line struct {
	start, end int
	text       string
	bbox       r2.Rect
	glyphs     []*Node
}

func (l *line) blank() bool {
	return strings.TrimSpace(l.text) == "" || !l.bbox.IsValid() || l.bbox.IsEmpty()
}

// Build assembles the layout tree of a page from the page text produced by
// the extractor and its text marks. Mark offsets index into text.
func Build(index int, width, height float64, text string, marks []extractor.TextMark, cfg Config) *Page {
	lines := splitLines(text)

	for _, mark := range marks {
		if strings.TrimSpace(mark.Text) == "" {
			continue
		}

		i := sort.Search(len(lines), func(i int) bool { return lines[i].end > mark.Offset })
		if i == len(lines) || mark.Offset < lines[i].start {
			continue
		}

		lines[i].glyphs = append(lines[i].glyphs, &Node{
			Kind: Other,
			BBox: pdfutils.GetMarkRect(mark),
			Text: mark.Text,
		})
	}

	for _, l := range lines {
		rects := make([]r2.Rect, len(l.glyphs))
		for i, g := range l.glyphs {
			rects[i] = g.BBox
		}
		l.bbox = pdfutils.UnionRects(rects)
	}

	root := &Node{Kind: Container, BBox: r2.RectFromPoints(r2.Point{}, r2.Point{X: width, Y: height})}

	for _, group := range groupLines(lines, cfg) {
		root.Children = append(root.Children, boxNode(group))
	}

	return &Page{
		Index:  index,
		Width:  width,
		Height: height,
		Root:   root,
	}
}

func splitLines(text string) []*line {
	lines := []*line{}
	start := 0

	for start <= len(text) {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}

		lines = append(lines, &line{start: start, end: end, text: text[start:end]})
		start = end + 1
	}

	return lines
}

// groupLines splits lines into boxes at blank lines, at vertical gaps wider
// than the threshold, and where the reading order jumps upwards or sideways
// into a column that does not overlap the previous line.
func groupLines(lines []*line, cfg Config) [][]*line {
	groups := [][]*line{}
	current := []*line{}

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = []*line{}
		}
	}

	for _, l := range lines {
		if l.blank() {
			flush()
			continue
		}

		if len(current) > 0 {
			prev := current[len(current)-1]
			gap := prev.bbox.Y.Lo - l.bbox.Y.Hi

			switch {
			case gap > cfg.VerticalGapThreshold*prev.bbox.Y.Length():
				flush()
			case l.bbox.Y.Hi > prev.bbox.Y.Hi:
				flush()
			case !prev.bbox.X.Intersects(l.bbox.X):
				flush()
			}
		}

		current = append(current, l)
	}

	flush()

	return groups
}

func lineNode(l *line) *Node {
	return &Node{
		Kind:     TextLine,
		BBox:     l.bbox,
		Text:     l.text,
		Children: l.glyphs,
	}
}

// boxNode returns the line itself for single-line groups, so that a lone
// line is not reported twice.
func boxNode(group []*line) *Node {
	if len(group) == 1 {
		return lineNode(group[0])
	}

	box := &Node{Kind: TextBox, BBox: r2.EmptyRect()}
	texts := make([]string, len(group))

	for i, l := range group {
		box.Children = append(box.Children, lineNode(l))
		box.BBox = box.BBox.Union(l.bbox)
		texts[i] = l.text
	}

	box.Text = strings.Join(texts, "\n")

	return box
}
