package feed

import "sync"

// View is the single visual state of the grid.
type View int

const (
	ViewSpinner View = iota
	ViewEmpty
	ViewEndMarker
	// ViewPopulated renders the list with the load-more sentinel.
	ViewPopulated
)

func (v View) String() string {
	switch v {
	case ViewSpinner:
		return "spinner"
	case ViewEmpty:
		return "empty"
	case ViewEndMarker:
		return "end"
	default:
		return "populated"
	}
}

// State derives the view from the loader state.
func State(loading, hasMore bool, n int) View {
	switch {
	case loading:
		return ViewSpinner
	case n == 0:
		return ViewEmpty
	case !hasMore:
		return ViewEndMarker
	default:
		return ViewPopulated
	}
}

// Sentinel triggers load-more when the bottom marker scrolls into view.
type Sentinel struct {
	mu       sync.Mutex
	visible  bool
	loadMore func()
}

func NewSentinel(loadMore func()) *Sentinel {
	return &Sentinel{loadMore: loadMore}
}

// Observe records the marker's visibility. The callback fires once per
// hidden to visible transition, and only when hasMore && !loading at that
// moment. It reports whether the callback fired.
func (s *Sentinel) Observe(visible, hasMore, loading bool) bool {
	s.mu.Lock()
	entered := visible && !s.visible
	s.visible = visible
	s.mu.Unlock()

	if !entered || !hasMore || loading || s.loadMore == nil {
		return false
	}
	s.loadMore()
	return true
}
