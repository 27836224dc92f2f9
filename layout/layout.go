// Package layout presents the text of a PDF page as a tree of positioned
// boxes, lines and glyphs.
package layout

import "github.com/golang/geo/r2"

// Kind is the variant of a layout node.
type Kind int

const (
	// Container groups other nodes; the page root is a container.
	Container Kind = iota
	// TextBox is a block of two or more lines.
	TextBox
	// TextLine is a single line of text.
	TextLine
	// Other covers leaves without text semantics of their own, such as glyphs.
	Other
)

func (k Kind) String() string {
	switch k {
	case Container:
		return "container"
	case TextBox:
		return "textbox"
	case TextLine:
		return "textline"
	default:
		return "other"
	}
}

// Node is one element of a page's layout tree. BBox is in PDF user space
// with the origin at the bottom left.
type Node struct {
	Kind     Kind
	BBox     r2.Rect
	Text     string
	Children []*Node
}

// Page is the layout tree of one page.
type Page struct {
	// Index is zero-based.
	Index  int
	Width  float64
	Height float64
	Root   *Node
}

// Walk calls fn for n and then for each of its descendants, depth first,
// parents before children.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}

	fn(n)

	for _, child := range n.Children {
		Walk(child, fn)
	}
}
