// Package view decides where a scrollable panel's cursor goes when the
// highlighted line changes, so that a poll does not yank the view away from
// where the user scrolled it.
package view

// Viewport is the band of lines currently visible in a panel: [Top, Top+Height).
type Viewport struct {
	Top    int
	Height int
}

// Bottom returns the first line below the visible band.
func (v Viewport) Bottom() int {
	return v.Top + v.Height
}

// Contains reports whether line is visible.
func (v Viewport) Contains(line int) bool {
	return line >= v.Top && line < v.Bottom()
}

// Cursor is the outcome of a placement decision.
type Cursor struct {
	// Move is false when the cursor must stay where the user left it.
	Move bool
	// Line is the new cursor line, valid when Move is set.
	Line int
	// Top is the new first visible line, valid when Move is set and a viewport was known.
	Top int
}

// Place decides the cursor for a highlighted target line.
//
// Without a known viewport the cursor goes straight to target. With one, a
// target that is already visible leaves the cursor alone unless fresh is set
// (new content was just loaded). Otherwise the cursor snaps to target and the
// viewport is scrolled so target sits `offset` lines below the top.
func Place(vp *Viewport, target int, fresh bool, offset int) Cursor {
	if target < 0 {
		return Cursor{}
	}
	if vp == nil {
		return Cursor{Move: true, Line: target}
	}
	if !fresh && vp.Contains(target) {
		return Cursor{}
	}
	top := target - offset
	if top < 0 {
		top = 0
	}
	return Cursor{Move: true, Line: target, Top: top}
}
