package printing

import (
	"fmt"
	"math"
)

// PageAllocator adds a page to a document and returns its 1-based number
type PageAllocator interface {
	AddPage() (int, error)
}

// Position is a point in the flow of a document
type Position struct {
	Page int
	Y    float64
}

// Lowest returns whichever position is further down the document
func Lowest(a, b Position) Position {
	if a.Page != b.Page {
		if a.Page > b.Page {
			return a
		}
		return b
	}
	if a.Y < b.Y {
		return a
	}
	return b
}

// PageFlow tracks the vertical writing cursor of one document and starts a
// new page when a reservation would cross the bottom margin. It is not safe
// for concurrent use; every document gets its own.
type PageFlow struct {
	alloc  PageAllocator
	top    float64
	bottom float64

	page   int
	pages  int
	cursor float64
}

// NewPageFlow allocates the first page and puts the cursor at the top margin
func NewPageFlow(alloc PageAllocator, layout Layout) (*PageFlow, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	f := &PageFlow{
		alloc:  alloc,
		top:    layout.TopY(),
		bottom: layout.BottomMargin,
	}
	if err := f.advance(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reserve claims height points below the cursor and returns the new cursor,
// which is the bottom of the reserved band. If the band would end below the
// bottom margin the flow moves to the next page first.
func (f *PageFlow) Reserve(height float64) (float64, error) {
	if math.IsNaN(height) || math.IsInf(height, 0) || height < 0 {
		return 0, NewRenderError(ErrCodeInvalidCoordinate, fmt.Sprintf("invalid reservation height %v", height), nil)
	}
	if !f.Fits(height) && f.cursor < f.top {
		if err := f.advance(); err != nil {
			return 0, err
		}
	}
	f.cursor -= height
	return f.cursor, nil
}

// Fits reports whether height points fit above the bottom margin
func (f *PageFlow) Fits(height float64) bool {
	return f.cursor-height >= f.bottom
}

// Break moves to the top of the next page
func (f *PageFlow) Break() error {
	return f.advance()
}

// Page is the page the cursor is on
func (f *PageFlow) Page() int {
	return f.page
}

// Pages is the number of pages allocated so far
func (f *PageFlow) Pages() int {
	return f.pages
}

// Cursor is the current y position
func (f *PageFlow) Cursor() float64 {
	return f.cursor
}

// Mark returns the current position
func (f *PageFlow) Mark() Position {
	return Position{Page: f.page, Y: f.cursor}
}

// Restore moves the cursor back to a marked position. Pages already
// allocated after it are reused rather than allocated again.
func (f *PageFlow) Restore(p Position) {
	f.page = p.Page
	f.cursor = p.Y
}

func (f *PageFlow) advance() error {
	if f.page < f.pages {
		f.page++
		f.cursor = f.top
		return nil
	}
	n, err := f.alloc.AddPage()
	if err != nil {
		return err
	}
	f.page = n
	f.pages = n
	f.cursor = f.top
	return nil
}
