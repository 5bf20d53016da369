// Package camera provides a viewport that follows an agent over a bounded arena.
package camera

import "math"

// Camera controls the viewport into the arena. The view never shows
// space outside the world unless the world is smaller than the view.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float64

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// World dimensions (for edge clamping)
	WorldW, WorldH float64

	// Zoom constraints
	MinZoom, MaxZoom float64

	// Smoothing is the exponential follow rate per second; 0 snaps.
	Smoothing float64
}

// New creates a camera centered on the world with 1:1 zoom.
func New(viewportW, viewportH, worldW, worldH, smoothing float64) *Camera {
	// At zoom Z the visible area is (viewportW/Z, viewportH/Z); keep it
	// inside the world where possible.
	minZoom := math.Max(viewportW/worldW, viewportH/worldH)

	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      math.Max(1.0, minZoom),
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   minZoom,
		MaxZoom:   4.0,
		Smoothing: smoothing,
	}
}

// Follow eases the center toward (tx, ty) over dtSec, then clamps it so the
// view stays inside the world. Non-finite targets are ignored.
func (c *Camera) Follow(tx, ty, dtSec float64) {
	if math.IsNaN(tx) || math.IsNaN(ty) || math.IsInf(tx, 0) || math.IsInf(ty, 0) {
		return
	}
	alpha := 1.0
	if c.Smoothing > 0 && dtSec >= 0 {
		alpha = 1 - math.Exp(-c.Smoothing*dtSec)
	}
	c.X += (tx - c.X) * alpha
	c.Y += (ty - c.Y) * alpha
	c.clampCenter()
}

// SnapTo centers on (x, y) immediately.
func (c *Camera) SnapTo(x, y float64) {
	c.X, c.Y = x, y
	c.clampCenter()
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = math.Max(viewportW/c.WorldW, viewportH/c.WorldH)
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area
// as (minX, minY, maxX, maxY), intersected with the world.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = math.Max(c.X-halfW, 0)
	maxX = math.Min(c.X+halfW, c.WorldW)
	minY = math.Max(c.Y-halfH, 0)
	maxY = math.Min(c.Y+halfH, c.WorldH)
	return
}

// clampCenter keeps the view inside the world, or centers it on an axis
// where the world is narrower than the view.
func (c *Camera) clampCenter() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	c.X = clampAxis(c.X, halfW, c.WorldW)
	c.Y = clampAxis(c.Y, halfH, c.WorldH)
}

func clampAxis(v, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(v, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
