package printing

import "io"

// TextStyle is the font weight, size and color of a run of text
type TextStyle struct {
	Weight Weight
	Size   float64
	Color  Color
}

// Surface is the page-drawing backend. Coordinates are points measured from
// the bottom-left corner of the page.
type Surface interface {
	PageAllocator
	// SetPage selects an existing page for the following drawing calls
	SetPage(page int) error
	// Text draws text with its baseline at y
	Text(x, y float64, text string, style TextStyle) error
	// TextWidth measures text in the given style
	TextWidth(text string, style TextStyle) float64
	// FillRect fills the rectangle whose lower-left corner is (x, y)
	FillRect(x, y, w, h float64, color Color) error
	// Line strokes a straight line
	Line(x1, y1, x2, y2, width float64, color Color) error
	// PageCount is the number of pages added so far
	PageCount() int
	// Output encodes the finished document
	Output(w io.Writer) error
}
