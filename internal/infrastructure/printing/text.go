package printing

import (
	"fmt"
	"math"
)

// TextRenderer places strings on a Surface. It holds no state.
type TextRenderer struct{}

// Draw places text with its baseline at (x, y) on page
func (TextRenderer) Draw(s Surface, page int, text string, x, y float64, style TextStyle) error {
	if !finite(x) || !finite(y) || !finite(style.Size) {
		return NewRenderError(ErrCodeInvalidCoordinate,
			fmt.Sprintf("cannot draw %q at (%v, %v) size %v", text, x, y, style.Size), nil)
	}
	if err := s.SetPage(page); err != nil {
		return err
	}
	return s.Text(x, y, text, style)
}

// DrawRight places text so that it ends at rightX
func (r TextRenderer) DrawRight(s Surface, page int, text string, rightX, y float64, style TextStyle) error {
	return r.Draw(s, page, text, rightX-s.TextWidth(text, style), y, style)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
