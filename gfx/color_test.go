package gfx

import (
	"math"
	"testing"
)

func TestPremultiply(t *testing.T) {
	c := RGBA{R: 1, G: 0.5, B: 0.25, A: 0.5}.Premultiply()
	want := RGBA{R: 0.5, G: 0.25, B: 0.125, A: 0.5}
	if math.Abs(c.R-want.R) > 1e-9 || math.Abs(c.G-want.G) > 1e-9 ||
		math.Abs(c.B-want.B) > 1e-9 || c.A != want.A {
		t.Errorf("Premultiply = %+v, want %+v", c, want)
	}
}

func TestNRGBAClamps(t *testing.T) {
	c := RGBA{R: 2, G: -1, B: 0.5, A: 1}.NRGBA()
	if c.R != 255 || c.G != 0 {
		t.Errorf("NRGBA did not clamp: %+v", c)
	}
}

func TestPaletteDistinct(t *testing.T) {
	seen := make(map[RGBA]bool)
	for i := 0; i < 16; i++ {
		c := Palette(i)
		if seen[c] {
			t.Fatalf("palette repeats color %+v at index %d", c, i)
		}
		seen[c] = true
		if c.A != 1 {
			t.Errorf("Palette(%d).A = %g, want 1", i, c.A)
		}
	}
	if Palette(3) != Palette(3) {
		t.Error("palette not deterministic")
	}
}
