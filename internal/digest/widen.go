package digest

import "github.com/ppiankov/chandigest/internal/store"

// DefaultWidenSteps are the window sizes, in hours, tried by Widen.
var DefaultWidenSteps = []int{24, 72, 168}

// Windower answers windowed freshness queries.
type Windower interface {
	Window(hours int) store.Window
}

// Widen queries q with each step in order and returns the first non-empty
// window with the hours that produced it. When every step is empty it returns
// the last window. Empty steps fall back to DefaultWidenSteps.
func Widen(q Windower, steps []int) (store.Window, int) {
	if len(steps) == 0 {
		steps = DefaultWidenSteps
	}
	var w store.Window
	for _, h := range steps {
		w = q.Window(h)
		if !w.Empty() {
			return w, h
		}
	}
	return w, steps[len(steps)-1]
}
