package printing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageFlow(t *testing.T) {
	alloc := &countingAllocator{}
	flow, err := NewPageFlow(alloc, DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, 1, alloc.pages)
	assert.Equal(t, 1, flow.Page())
	assert.InDelta(t, A4Height-60, flow.Cursor(), 1e-9)
}

func TestNewPageFlowRejectsBadLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.BottomMargin = layout.PageHeight

	_, err := NewPageFlow(&countingAllocator{}, layout)
	require.Error(t, err)
	assert.True(t, IsRenderError(err))
}

func TestReserveDecrementsCursor(t *testing.T) {
	flow, err := NewPageFlow(&countingAllocator{}, DefaultLayout())
	require.NoError(t, err)

	y, err := flow.Reserve(20)
	require.NoError(t, err)
	assert.InDelta(t, A4Height-80, y, 1e-9)
	assert.InDelta(t, y, flow.Cursor(), 1e-9)

	y, err = flow.Reserve(0)
	require.NoError(t, err)
	assert.InDelta(t, A4Height-80, y, 1e-9)
}

func TestReserveRejectsInvalidHeights(t *testing.T) {
	flow, err := NewPageFlow(&countingAllocator{}, DefaultLayout())
	require.NoError(t, err)

	for _, h := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := flow.Reserve(h)
		require.Error(t, err)

		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeInvalidCoordinate, re.Code)
	}
}

func TestPaginationTrigger(t *testing.T) {
	const rowHeight = 20.0
	layout := DefaultLayout()
	available := layout.TopY() - layout.BottomMargin
	rowsPerPage := int(available / rowHeight)

	tests := []struct {
		name      string
		rows      int
		wantPages int
	}{
		{name: "fits on one page", rows: rowsPerPage, wantPages: 1},
		{name: "one row over", rows: rowsPerPage + 1, wantPages: 2},
		{name: "forty rows", rows: 40, wantPages: 2},
		{name: "sixty rows", rows: 60, wantPages: 2},
		{name: "three pages", rows: 2*rowsPerPage + 5, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := &countingAllocator{}
			flow, err := NewPageFlow(alloc, layout)
			require.NoError(t, err)

			var pages []int
			for i := 0; i < tt.rows; i++ {
				y, err := flow.Reserve(rowHeight)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, y, layout.BottomMargin)
				pages = append(pages, flow.Page())
			}

			assert.Equal(t, tt.wantPages, alloc.pages)
			used := float64(tt.rows) * rowHeight
			assert.Equal(t, int(math.Ceil(used/available)), alloc.pages)
			if tt.rows > rowsPerPage {
				assert.Equal(t, 1, pages[rowsPerPage-1])
				assert.Equal(t, 2, pages[rowsPerPage])
			}
		})
	}
}

func TestOverflowRowStartsAtTopMargin(t *testing.T) {
	layout := DefaultLayout()
	flow, err := NewPageFlow(&countingAllocator{}, layout)
	require.NoError(t, err)

	_, err = flow.Reserve(layout.TopY() - layout.BottomMargin - 5)
	require.NoError(t, err)
	assert.True(t, flow.Fits(5))
	assert.False(t, flow.Fits(20))

	y, err := flow.Reserve(20)
	require.NoError(t, err)
	assert.Equal(t, 2, flow.Page())
	assert.InDelta(t, layout.TopY()-20, y, 1e-9)
}

func TestOversizedReservationDoesNotLoop(t *testing.T) {
	alloc := &countingAllocator{}
	flow, err := NewPageFlow(alloc, DefaultLayout())
	require.NoError(t, err)

	_, err = flow.Reserve(2000)
	require.NoError(t, err)
	assert.Equal(t, 1, alloc.pages)
}

func TestReservePropagatesAllocatorError(t *testing.T) {
	flow, err := NewPageFlow(&countingAllocator{limit: 1}, DefaultLayout())
	require.NoError(t, err)

	_, err = flow.Reserve(100)
	require.NoError(t, err)
	_, err = flow.Reserve(600)
	assert.Error(t, err)
	assert.Equal(t, 1, flow.Page())
}

func TestMarkRestoreReusesPages(t *testing.T) {
	layout := DefaultLayout()
	alloc := &countingAllocator{}
	flow, err := NewPageFlow(alloc, layout)
	require.NoError(t, err)

	start := flow.Mark()
	for i := 0; i < 40; i++ {
		_, err := flow.Reserve(20)
		require.NoError(t, err)
	}
	leftEnd := flow.Mark()
	assert.Equal(t, 2, leftEnd.Page)

	flow.Restore(start)
	for i := 0; i < 35; i++ {
		_, err := flow.Reserve(20)
		require.NoError(t, err)
	}
	rightEnd := flow.Mark()

	assert.Equal(t, 2, alloc.pages)
	assert.Equal(t, 2, rightEnd.Page)
	assert.Equal(t, leftEnd, Lowest(leftEnd, rightEnd))
	assert.Equal(t, leftEnd, Lowest(rightEnd, leftEnd))
}

func TestLowest(t *testing.T) {
	a := Position{Page: 1, Y: 300}
	b := Position{Page: 1, Y: 200}
	c := Position{Page: 2, Y: 700}

	assert.Equal(t, b, Lowest(a, b))
	assert.Equal(t, b, Lowest(b, a))
	assert.Equal(t, c, Lowest(b, c))
	assert.Equal(t, c, Lowest(c, a))
}

func TestBreak(t *testing.T) {
	alloc := &countingAllocator{}
	flow, err := NewPageFlow(alloc, DefaultLayout())
	require.NoError(t, err)

	require.NoError(t, flow.Break())
	assert.Equal(t, 2, flow.Page())
	assert.Equal(t, 2, flow.Pages())
	assert.InDelta(t, DefaultLayout().TopY(), flow.Cursor(), 1e-9)
}
