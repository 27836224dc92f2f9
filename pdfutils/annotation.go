package pdfutils

const (
	Highlight   string = "highlight"
	Strike             = "strike"
	Underline          = "underline"
	Text               = "text"
	Rectangle          = "rectangle"
	Popup              = "popup"
	Unsupported        = "unsupported"
)

// Annotation is the JSON record emitted for one annotation found in a PDF.
type Annotation struct {
	AnnotatedText string  `json:"annotatedText,omitempty"`
	Author        string  `json:"author,omitempty"`
	Color         string  `json:"color,omitempty"`
	ColorCategory string  `json:"colorCategory,omitempty"`
	Comment       string  `json:"comment,omitempty"`
	Date          string  `json:"date,omitempty"`
	ID            string  `json:"id"`
	Page          int     `json:"page"`
	Type          string  `json:"type"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// ByPosition orders annotations top to bottom, then left to right, in PDF
// user space.
type ByPosition []*Annotation

func (a ByPosition) Len() int      { return len(a) }
func (a ByPosition) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByPosition) Less(i, j int) bool {
	if a[i].Page != a[j].Page {
		return a[i].Page < a[j].Page
	}
	if a[i].Y != a[j].Y {
		return a[i].Y > a[j].Y
	}
	return a[i].X < a[j].X
}
