package graph

import "math"

const (
	DefaultScale = 0.6
	MinScale     = 0.3
	MaxZoom      = 2.0
	ZoomStep     = 0.2

	// FitMaxScale caps fit-to-view; MobileMaxScale caps the automatic fit
	// applied when a narrow viewport first opens the canvas.
	FitMaxScale    = 1.0
	MobileMaxScale = 0.8
)

// FitScale returns the factor that fits a canvas of canvasWidth into
// viewportWidth, bounded to [minScale, maxScale]. Labels stop being legible
// below minScale, so narrow viewports scroll instead of shrinking further.
func FitScale(canvasWidth, viewportWidth, maxScale, minScale float64) float64 {
	if canvasWidth <= 0 || viewportWidth <= 0 {
		return math.Max(math.Min(DefaultScale, maxScale), minScale)
	}
	return math.Max(math.Min(viewportWidth/canvasWidth, maxScale), minScale)
}

// Fit is FitScale with the default bounds.
func (l *Layout) Fit(viewportWidth float64) float64 {
	return FitScale(l.Width, viewportWidth, FitMaxScale, MinScale)
}

func ZoomIn(scale float64) float64 {
	return math.Min(scale+ZoomStep, MaxZoom)
}

func ZoomOut(scale float64) float64 {
	return math.Max(scale-ZoomStep, MinScale)
}
