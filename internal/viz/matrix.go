package viz

import (
	"fmt"
	"image"
	"image/draw"
)

// Matrix renders a rectangular value table with one colored cell per entry,
// rows top to bottom. Values are expected in [0, 1]; callers remap signed
// data before rendering. Unlike Heatmap it accepts any rows-by-columns shape
// and draws no axis labels, which suits positional encoding tables and other
// non-attention data.
func Matrix(values [][]float32, opts HeatmapOptions) *image.RGBA {
	rows := len(values)
	if rows == 0 || len(values[0]) == 0 {
		panic("viz: empty matrix")
	}
	cols := len(values[0])
	for i, row := range values {
		if len(row) != cols {
			panic(fmt.Sprintf("viz: ragged matrix, row %d has %d of %d columns", i, len(row), cols))
		}
	}

	if opts.Colormap == nil {
		opts.Colormap = Viridis
	}
	if opts.CellSize == 0 {
		opts.CellSize = defaultCell
	}
	longest := rows
	if cols > longest {
		longest = cols
	}
	if opts.CellSize*longest > maxGridPx {
		opts.CellSize = maxGridPx / longest
		if opts.CellSize < 1 {
			opts.CellSize = 1
		}
	}

	norm := opts.Normalize.apply(values)

	cell := opts.CellSize
	titleH := 0
	if opts.Title != "" {
		titleH = charH + pad
	}
	width := pad + cols*cell + pad
	height := pad + titleH + rows*cell + pad

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	if opts.Title != "" {
		drawString(img, pad, pad, opts.Title, fgColor)
	}

	originX, originY := pad, pad+titleH
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fillRect(img, originX+j*cell, originY+i*cell, cell, cell, opts.Colormap(float64(norm[i][j])))
		}
	}
	return img
}

// MatrixPNG renders a rectangular value table and writes it to path.
func MatrixPNG(path string, values [][]float32, opts HeatmapOptions) error {
	return WritePNG(path, Matrix(values, opts))
}
