package game

// History is the ordered log of strokes drawn in the current round.
type History struct {
	strokes []Stroke
}

func (h *History) Append(s Stroke) {
	h.strokes = append(h.strokes, s)
}

func (h *History) Reset() {
	h.strokes = nil
}

func (h *History) Len() int {
	return len(h.strokes)
}

// Strokes returns a copy of the log in drawing order.
func (h *History) Strokes() []Stroke {
	return append([]Stroke(nil), h.strokes...)
}

// UndoLastStroke drops the most recent completed stroke, from its mousedown
// through its mouseup, along with anything drawn after it. When no stroke was
// ever lifted the in-progress one is cut at its mousedown. Returns false when
// there was nothing to undo.
func (h *History) UndoLastStroke() bool {
	cut := strokeStart(h.strokes)

	if cut < 0 {
		return false
	}

	h.strokes = h.strokes[:cut]
	return true
}

// strokeStart finds where the last stroke begins, or -1.
func strokeStart(strokes []Stroke) int {
	end := lastIndexOf(strokes, StrokeUp, len(strokes))

	if end < 0 {
		return lastIndexOf(strokes, StrokeDown, len(strokes))
	}

	if start := lastIndexOf(strokes, StrokeDown, end); start >= 0 {
		return start
	}

	return end
}

// lastIndexOf scans strokes[:before] backwards for kind.
func lastIndexOf(strokes []Stroke, kind StrokeKind, before int) int {
	for i := before - 1; i >= 0; i-- {
		if strokes[i].Kind == kind {
			return i
		}
	}

	return -1
}
