package feed

type breakpoint struct {
	minWidth int
	columns  int
}

var (
	fullBreakpoints = []breakpoint{
		{1536, 6},
		{1280, 5},
		{1024, 4},
		{768, 3},
		{640, 2},
	}
	minimalBreakpoints = []breakpoint{
		{1024, 3},
		{640, 2},
	}
)

// Columns returns the column count for a viewport width. Minimal mode is the
// dense strip used on profiles and related assets.
func Columns(width int, minimal bool) int {
	bps := fullBreakpoints
	if minimal {
		bps = minimalBreakpoints
	}
	for _, bp := range bps {
		if width >= bp.minWidth {
			return bp.columns
		}
	}
	return 1
}

// Overlays reports whether cards show hover interactions.
func Overlays(minimal bool) bool {
	return !minimal
}

// Relative heights, in column widths.
const (
	TagCardHeight       = 0.5
	DefaultAssetHeight  = 4.0 / 3.0
	maxAssetAspectRatio = 3.0
)

// EstimatedHeight is the rendered height of item for a column width of 1.
func EstimatedHeight(item Item) float64 {
	if item.Kind == KindTag {
		return TagCardHeight
	}
	if item.Asset == nil {
		return DefaultAssetHeight
	}
	dims, ok := item.Asset.Dimensions()
	if !ok {
		return DefaultAssetHeight
	}
	return min(float64(dims.Height)/float64(dims.Width), maxAssetAspectRatio)
}

// Layout packs items into columns, each going to the currently shortest
// column (leftmost on ties). Order within a column follows feed order.
func Layout(items []Item, columns int) [][]Item {
	if columns < 1 {
		columns = 1
	}
	cols := make([][]Item, columns)
	heights := make([]float64, columns)
	for _, it := range items {
		shortest := 0
		for c := 1; c < columns; c++ {
			if heights[c] < heights[shortest] {
				shortest = c
			}
		}
		cols[shortest] = append(cols[shortest], it)
		heights[shortest] += EstimatedHeight(it)
	}
	return cols
}
