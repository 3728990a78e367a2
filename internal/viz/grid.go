package viz

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/prism-ml/prism/internal/encoder"
)

// Tile layout for the layer/head overview grid.
const (
	gridCell   = 6
	tileMargin = 10
)

// Grid renders every attention head of a traced forward pass as one tiled
// image: layers as rows, heads as columns, first batch row. Tiles carry no
// axis labels; Heatmap renders a single head at full size.
func Grid(trace *encoder.Trace, opts HeatmapOptions) *image.RGBA {
	layers, heads, seq := trace.NumLayers(), trace.NumHeads, trace.SeqLen
	if layers == 0 || heads == 0 || seq == 0 {
		panic("viz: empty trace")
	}
	if opts.CellSize == 0 {
		opts.CellSize = gridCell
	}
	opts = opts.withDefaults(seq)

	cell := opts.CellSize
	tile := seq * cell

	titleH := 0
	if opts.Title != "" {
		titleH = charH + pad
	}
	rowLabelW := 4*charW + pad
	colCaptionH := charH + 4

	width := pad + rowLabelW + heads*(tile+tileMargin) - tileMargin + pad
	height := pad + titleH + colCaptionH + layers*(tile+tileMargin) - tileMargin + pad

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	if opts.Title != "" {
		drawString(img, pad, pad, opts.Title, fgColor)
	}

	originX := pad + rowLabelW
	originY := pad + titleH + colCaptionH

	for h := 0; h < heads; h++ {
		caption := fmt.Sprintf("H%d", h)
		x := originX + h*(tile+tileMargin) + (tile-len(caption)*charW)/2
		drawString(img, x, originY-colCaptionH, caption, dimColor)
	}

	for l := 0; l < layers; l++ {
		y := originY + l*(tile+tileMargin)

		label := fmt.Sprintf("L%d", l)
		drawString(img, pad, y+(tile-charH)/2, label, dimColor)

		for h := 0; h < heads; h++ {
			x := originX + h*(tile+tileMargin)
			norm := opts.Normalize.apply(trace.Weights(l, h))
			for i := 0; i < seq; i++ {
				for j := 0; j < seq; j++ {
					fillRect(img, x+j*cell, y+i*cell, cell, cell, opts.Colormap(float64(norm[i][j])))
				}
			}
		}
	}

	return img
}

// GridPNG renders the layer/head overview and writes it to path.
func GridPNG(path string, trace *encoder.Trace, opts HeatmapOptions) error {
	return WritePNG(path, Grid(trace, opts))
}
