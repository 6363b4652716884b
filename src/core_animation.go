package main

import (
	"fmt"
	"math/rand/v2"
)

// Animation is the motion applied to one photo over its display time
type Animation int

const (
	ZoomIn Animation = iota
	ZoomOut
	PanLeft
	PanRight
	PanUp
	PanDown
)

var animations = []Animation{ZoomIn, ZoomOut, PanLeft, PanRight, PanUp, PanDown}

const (
	zoomDelta  = 0.05 // zoom runs between 1.0 and 1.0+zoomDelta
	panPercent = 5    // pans travel this share of the frame size
)

const panFraction = float64(panPercent) / 100

func (a Animation) String() string {
	return [...]string{"zoom_in", "zoom_out", "pan_left", "pan_right", "pan_up", "pan_down"}[a]
}

func (a Animation) IsZoom() bool { return a == ZoomIn || a == ZoomOut }

// RandomAnimation picks one of the six animations uniformly
func RandomAnimation(rng *rand.Rand) Animation {
	return animations[rng.IntN(len(animations))]
}

// Motion is the transform in effect at one instant: a scale factor around the
// frame centre and an offset expressed as a fraction of frame width/height.
type Motion struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Motion returns the transform after elapsed seconds of a clip lasting duration seconds
func (a Animation) Motion(elapsed, duration float64) Motion {
	progress := 0.0
	if duration > 0 {
		progress = elapsed / duration
	}
	progress = min(max(progress, 0), 1)

	m := Motion{Scale: 1}
	switch a {
	case ZoomIn:
		m.Scale = 1 + zoomDelta*progress
	case ZoomOut:
		m.Scale = 1 + zoomDelta - zoomDelta*progress
	case PanLeft:
		m.OffsetX = -panFraction * progress
	case PanRight:
		m.OffsetX = panFraction * progress
	case PanUp:
		m.OffsetY = -panFraction * progress
	case PanDown:
		m.OffsetY = panFraction * progress
	}
	return m
}

// zoomExpr is the zoompan "z" expression; frames is the clip length in output frames
func (a Animation) zoomExpr(frames int) string {
	switch a {
	case ZoomIn:
		return fmt.Sprintf("1+%g*on/%d", zoomDelta, frames)
	case ZoomOut:
		return fmt.Sprintf("%g-%g*on/%d", 1+zoomDelta, zoomDelta, frames)
	}
	return "1"
}

// overlayExpr returns the overlay x/y expressions for a pan over a width×height
// frame lasting duration seconds
func (a Animation) overlayExpr(width, height int, duration float64) (x, y string) {
	x, y = "0", "0"
	dx := float64(width*panPercent) / 100
	dy := float64(height*panPercent) / 100
	switch a {
	case PanLeft:
		x = fmt.Sprintf("-%g*t/%g", dx, duration)
	case PanRight:
		x = fmt.Sprintf("%g*t/%g", dx, duration)
	case PanUp:
		y = fmt.Sprintf("-%g*t/%g", dy, duration)
	case PanDown:
		y = fmt.Sprintf("%g*t/%g", dy, duration)
	}
	return x, y
}
