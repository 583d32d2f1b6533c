package printing

import "fmt"

// A4 in points
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Color is an RGB triple
type Color struct {
	R, G, B int
}

// Palette used by the invoice layout
var (
	ColorBanner     = Color{44, 62, 80}
	ColorLight      = Color{255, 255, 255}
	ColorBannerSub  = Color{214, 223, 232}
	ColorText       = Color{33, 33, 33}
	ColorMuted      = Color{110, 110, 110}
	ColorHeaderFill = Color{236, 240, 241}
	ColorRule       = Color{189, 195, 199}
)

// Layout holds page geometry in points. All y values are measured from the
// bottom edge of the page.
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginRight  float64
	TopMargin    float64
	BottomMargin float64
	BannerHeight float64
	RowHeight    float64
	LineHeight   float64
}

// DefaultLayout is the A4 invoice layout
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    A4Width,
		PageHeight:   A4Height,
		MarginLeft:   50,
		MarginRight:  50,
		TopMargin:    60,
		BottomMargin: 150,
		BannerHeight: 110,
		RowHeight:    20,
		LineHeight:   15,
	}
}

// TopY is where content resumes on a new page
func (l Layout) TopY() float64 {
	return l.PageHeight - l.TopMargin
}

// RightX is the right edge of the content area
func (l Layout) RightX() float64 {
	return l.PageWidth - l.MarginRight
}

// ContentWidth is the width between the side margins
func (l Layout) ContentWidth() float64 {
	return l.RightX() - l.MarginLeft
}

// Validate rejects geometry that leaves no room for content
func (l Layout) Validate() error {
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		return NewRenderError(ErrCodeInvalidPaperSize,
			fmt.Sprintf("invalid page size %.2fx%.2f", l.PageWidth, l.PageHeight), nil)
	}
	if l.TopY() <= l.BottomMargin {
		return NewRenderError(ErrCodeInvalidPaperSize, "margins leave no vertical space", nil)
	}
	if l.ContentWidth() <= 0 {
		return NewRenderError(ErrCodeInvalidPaperSize, "margins leave no horizontal space", nil)
	}
	if l.RowHeight <= 0 || l.LineHeight <= 0 {
		return NewRenderError(ErrCodeInvalidPaperSize, "row and line height must be positive", nil)
	}
	return nil
}
