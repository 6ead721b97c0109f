// Package gfx provides the color values shared by the rendering backends.
package gfx

import (
	"image/color"
	"math"
)

// RGBA is a color with components in [0, 1], not premultiplied.
type RGBA struct {
	R, G, B, A float64
}

func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// WithAlpha returns the color with its alpha multiplied by a.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A *= a
	return c
}

// Premultiply returns the color with RGB multiplied by alpha.
func (c RGBA) Premultiply() RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Float32 returns the premultiplied components as float32, the layout GPU
// uniforms expect.
func (c RGBA) Float32() [4]float32 {
	p := c.Premultiply()
	return [4]float32{float32(p.R), float32(p.G), float32(p.B), float32(p.A)}
}

// NRGBA converts to the standard library's non-premultiplied 8-bit color.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

func clamp255(v float64) float64 {
	return min(max(v, 0), 255)
}

// Palette returns a deterministic color for index i. Hues advance by the
// golden angle so neighboring layers stay distinguishable.
func Palette(i int) RGBA {
	const goldenAngle = 137.50776405003785
	h := math.Mod(float64(i)*goldenAngle, 360)
	return hsv(h, 0.65, 0.9)
}

func hsv(h, s, v float64) RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGBA{R: r + m, G: g + m, B: b + m, A: 1}
}
