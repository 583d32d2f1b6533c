package printing

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type drawnText struct {
	page  int
	x, y  float64
	text  string
	style TextStyle
}

type drawnRect struct {
	page       int
	x, y, w, h float64
	color      Color
}

// recordingSurface captures drawing calls instead of producing a PDF
type recordingSurface struct {
	pages   int
	current int
	texts   []drawnText
	rects   []drawnRect
	lines   int
	failOn  string
}

func (r *recordingSurface) AddPage() (int, error) {
	if r.failOn == "AddPage" && r.pages >= 1 {
		return 0, NewRenderError(ErrCodeRenderFailed, "page limit reached", nil)
	}
	r.pages++
	r.current = r.pages
	return r.pages, nil
}

func (r *recordingSurface) SetPage(page int) error {
	if page < 1 || page > r.pages {
		return NewRenderError(ErrCodeRenderFailed, fmt.Sprintf("page %d does not exist", page), nil)
	}
	r.current = page
	return nil
}

func (r *recordingSurface) Text(x, y float64, text string, style TextStyle) error {
	if r.failOn == "Text" {
		return NewRenderError(ErrCodeRenderFailed, "failed to draw text", errors.New("boom"))
	}
	r.texts = append(r.texts, drawnText{page: r.current, x: x, y: y, text: text, style: style})
	return nil
}

// TextWidth approximates Helvetica at half an em per character
func (r *recordingSurface) TextWidth(text string, style TextStyle) float64 {
	return float64(len([]rune(text))) * style.Size * 0.5
}

func (r *recordingSurface) FillRect(x, y, w, h float64, color Color) error {
	r.rects = append(r.rects, drawnRect{page: r.current, x: x, y: y, w: w, h: h, color: color})
	return nil
}

func (r *recordingSurface) Line(x1, y1, x2, y2, width float64, color Color) error {
	r.lines++
	return nil
}

func (r *recordingSurface) PageCount() int {
	return r.pages
}

func (r *recordingSurface) Output(w io.Writer) error {
	if r.failOn == "Output" {
		return NewRenderError(ErrCodeEncodingFailed, "failed to encode PDF", errors.New("disk full"))
	}
	_, err := io.WriteString(w, fmt.Sprintf("recorded %d pages", r.pages))
	return err
}

func (r *recordingSurface) find(text string) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if t.text == text {
			out = append(out, t)
		}
	}
	return out
}

func (r *recordingSurface) findPrefix(prefix string) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if strings.HasPrefix(t.text, prefix) {
			out = append(out, t)
		}
	}
	return out
}

func (r *recordingSurface) onPage(page int) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if t.page == page {
			out = append(out, t)
		}
	}
	return out
}

// countingAllocator only counts pages
type countingAllocator struct {
	pages int
	limit int
}

func (c *countingAllocator) AddPage() (int, error) {
	if c.limit > 0 && c.pages >= c.limit {
		return 0, errors.New("page limit reached")
	}
	c.pages++
	return c.pages, nil
}
