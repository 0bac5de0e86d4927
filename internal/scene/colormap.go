package scene

import (
	"image/color"
	"math"
)

// Colormap interpolates linearly between evenly spaced stops.
type Colormap []color.NRGBA

// Heat runs dark blue, blue, green, yellow, red.
var Heat = Colormap{
	{0, 0, 139, 255},
	{0, 0, 255, 255},
	{0, 255, 0, 255},
	{255, 255, 0, 255},
	{255, 0, 0, 255},
}

func (m Colormap) At(v float64) color.NRGBA {
	switch len(m) {
	case 0:
		return color.NRGBA{}
	case 1:
		return m[0]
	}
	if math.IsNaN(v) || v <= 0 {
		return m[0]
	}
	if v >= 1 {
		return m[len(m)-1]
	}
	pos := v * float64(len(m)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := m[i], m[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.NRGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), lerp(a.A, b.A)}
}

// RGB converts unit-range components to an opaque color.
func RGB(r, g, b float64) color.NRGBA {
	return color.NRGBA{unit(r), unit(g), unit(b), 255}
}

// WithAlpha replaces the alpha of c with a in [0,1].
func WithAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = unit(a)
	return n
}

func unit(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Shade scales the color's brightness by f, keeping alpha.
func Shade(c color.NRGBA, f float64) color.NRGBA {
	s := func(v uint8) uint8 { return uint8(math.Min(255, math.Round(float64(v)*f))) }
	return color.NRGBA{s(c.R), s(c.G), s(c.B), c.A}
}
