package viz

import (
	"fmt"
	"image/color"
)

// Colormap maps a normalized value in [0, 1] to a color. Inputs outside
// the range are clamped.
type Colormap func(t float64) color.RGBA

// viridisAnchors samples matplotlib's viridis at ten even steps; values
// between anchors are linearly interpolated.
var viridisAnchors = [...][3]uint8{
	{68, 1, 84},
	{72, 40, 120},
	{62, 74, 137},
	{49, 104, 142},
	{38, 130, 142},
	{31, 158, 137},
	{53, 183, 121},
	{109, 205, 89},
	{180, 222, 44},
	{253, 231, 37},
}

// Viridis is the default colormap: dark purple for low attention through
// teal to bright yellow for high attention, perceptually uniform.
func Viridis(t float64) color.RGBA {
	return lerpAnchors(viridisAnchors[:], t)
}

// Grayscale maps low attention to black and high attention to white.
func Grayscale(t float64) color.RGBA {
	v := uint8(clamp01(t)*255 + 0.5)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// ParseColormap resolves a colormap by name. The empty string selects
// Viridis.
func ParseColormap(name string) (Colormap, error) {
	switch name {
	case "", "viridis":
		return Viridis, nil
	case "grayscale", "gray":
		return Grayscale, nil
	default:
		return nil, fmt.Errorf("unknown colormap %q, expected %q or %q", name, "viridis", "grayscale")
	}
}

func lerpAnchors(anchors [][3]uint8, t float64) color.RGBA {
	t = clamp01(t)
	pos := t * float64(len(anchors)-1)
	i := int(pos)
	if i >= len(anchors)-1 {
		last := anchors[len(anchors)-1]
		return color.RGBA{R: last[0], G: last[1], B: last[2], A: 255}
	}
	f := pos - float64(i)
	a, b := anchors[i], anchors[i+1]
	return color.RGBA{
		R: lerpByte(a[0], b[0], f),
		G: lerpByte(a[1], b[1], f),
		B: lerpByte(a[2], b[2], f),
		A: 255,
	}
}

func lerpByte(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + f*(float64(b)-float64(a)) + 0.5)
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// hexColor formats a colormap output for terminal and HTML use.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
