package menu

// ScrollOffset returns the vertical offset that centres an item of the
// given top and height inside the viewport, clamped to
// [0, contentHeight-viewportHeight]. Content that fits yields 0.
func ScrollOffset(itemTop, itemHeight, contentHeight, viewportHeight float64) float64 {
	maxOffset := contentHeight - viewportHeight
	if maxOffset <= 0 {
		return 0
	}
	offset := itemTop + itemHeight/2 - viewportHeight/2
	if offset < 0 {
		return 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}
