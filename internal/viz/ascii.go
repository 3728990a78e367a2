package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// shadeRamp maps intensity to block glyphs. Intensity is double-encoded
// in glyph and color so the pattern survives terminals without color
// support and output piped to a file.
var shadeRamp = []string{"  ", "░░", "▒▒", "▓▓", "██"}

// ASCIIOptions control the terminal rendering of an attention matrix.
type ASCIIOptions struct {
	// Labels holds one token label per row. Missing labels fall back to
	// position indices.
	Labels []string

	Colormap  Colormap
	Normalize Normalize

	// NoLegend drops the intensity legend under the grid.
	NoLegend bool
}

// ASCII renders an attention matrix as a shaded grid for the terminal.
// Cells are two characters wide to stay roughly square in monospace
// fonts. Rows are queries, columns are keys; the header shows the last
// digit of each key position.
//
// Panics on empty or non-square input, same as Heatmap.
func ASCII(weights [][]float32, opts ASCIIOptions) string {
	seq := len(weights)
	if seq == 0 {
		panic("viz: empty attention matrix")
	}
	for i, row := range weights {
		if len(row) != seq {
			panic(fmt.Sprintf("viz: attention matrix must be square, row %d has %d of %d columns", i, len(row), seq))
		}
	}
	cmap := opts.Colormap
	if cmap == nil {
		cmap = Viridis
	}
	norm := opts.Normalize.apply(weights)

	labels := asciiLabels(opts.Labels, seq)
	labelW := 0
	for _, l := range labels {
		if n := len(l); n > labelW {
			labelW = n
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelW+1))
	for j := 0; j < seq; j++ {
		fmt.Fprintf(&sb, "%-2d", j%10)
	}
	sb.WriteString("\n")

	for i, row := range norm {
		sb.WriteString(strings.Repeat(" ", labelW-len(labels[i])))
		sb.WriteString(labels[i])
		sb.WriteString(" ")
		for _, w := range row {
			sb.WriteString(shadeCell(float64(w), cmap))
		}
		sb.WriteString("\n")
	}

	if !opts.NoLegend {
		sb.WriteString(strings.Repeat(" ", labelW+1))
		sb.WriteString("0.00 ")
		for i := 1; i < len(shadeRamp); i++ {
			t := float64(i) / float64(len(shadeRamp)-1)
			sb.WriteString(colorize(shadeRamp[i], cmap, t))
		}
		sb.WriteString(" ")
		sb.WriteString(scaleMaxLabel(weights, opts.Normalize))
		sb.WriteString("\n")
	}
	return sb.String()
}

// shadeCell picks the glyph nearest to t and colors it with the colormap.
// Weights above the noise floor always get at least the lightest shade so
// diffuse attention does not render as an empty grid.
func shadeCell(t float64, cmap Colormap) string {
	t = clamp01(t)
	idx := int(t*float64(len(shadeRamp)-1) + 0.5)
	if idx == 0 {
		if t < 0.001 {
			return shadeRamp[0]
		}
		idx = 1
	}
	return colorize(shadeRamp[idx], cmap, t)
}

func colorize(glyph string, cmap Colormap, t float64) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor(cmap(t)))).
		Render(glyph)
}

// asciiLabels sanitizes the given labels and fills gaps with position
// indices.
func asciiLabels(labels []string, seq int) []string {
	out := sanitizeLabels(labels, seq)
	if out == nil {
		out = make([]string, seq)
	}
	for i := range out {
		if out[i] == "" {
			out[i] = strconv.Itoa(i)
		}
	}
	return out
}
