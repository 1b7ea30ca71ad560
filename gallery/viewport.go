package gallery

// NearBottomThreshold is how close to the bottom edge, in pixels, the
// viewport must be before the next page is requested.
const NearBottomThreshold = 20

// Viewport is a snapshot of the page's scroll geometry.
type Viewport struct {
	ScrollTop      float64 // window scroll offset
	WindowHeight   float64
	DocumentHeight float64
}

// NearBottom reports whether the viewport is within the threshold of the
// document's bottom edge.
func NearBottom(v Viewport) bool {
	return v.ScrollTop+NearBottomThreshold >= v.DocumentHeight-v.WindowHeight
}
