package viz

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform3x3() [][]float32 {
	third := float32(1.0) / 3
	return [][]float32{
		{third, third, third},
		{third, third, third},
		{third, third, third},
	}
}

func TestHeatmapDimensions(t *testing.T) {
	// 3x3 grid at the default 24px cell, scale bar on the right:
	// width  = pad + 72 + (pad + bar + gap + "0.00") + pad
	// height = pad + 72 + pad
	img := Heatmap(uniform3x3(), HeatmapOptions{})
	assert.Equal(t, 142, img.Bounds().Dx())
	assert.Equal(t, 88, img.Bounds().Dy())
}

func TestHeatmapDimensionsWithLabelsAndTitle(t *testing.T) {
	img := Heatmap(uniform3x3(), HeatmapOptions{
		Labels: []string{"the", "cat", "sat"},
		Title:  "demo",
	})
	// Row labels add 3*7+8 on the left, column labels 3*13+8 below,
	// the title one line plus padding on top.
	assert.Equal(t, 171, img.Bounds().Dx())
	assert.Equal(t, 156, img.Bounds().Dy())
}

func TestHeatmapCellColors(t *testing.T) {
	img := Heatmap([][]float32{
		{1, 0},
		{0.5, 0.5},
	}, HeatmapOptions{NoScaleBar: true})

	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())

	// Cell centers at the default 24px cell, origin (8, 8).
	assert.Equal(t, Viridis(1), img.RGBAAt(20, 20))
	assert.Equal(t, Viridis(0), img.RGBAAt(44, 20))
	assert.Equal(t, Viridis(0.5), img.RGBAAt(20, 44))

	assert.Equal(t, bgColor, img.RGBAAt(0, 0), "margins keep the page background")
}

func TestHeatmapRowNormalize(t *testing.T) {
	img := Heatmap([][]float32{
		{0.5, 0.25},
		{0.1, 0.1},
	}, HeatmapOptions{NoScaleBar: true, Normalize: NormalizeRow})

	// Each row's maximum renders at full intensity.
	assert.Equal(t, Viridis(1), img.RGBAAt(20, 20))
	assert.Equal(t, Viridis(0.5), img.RGBAAt(44, 20))
	assert.Equal(t, Viridis(1), img.RGBAAt(20, 44))
	assert.Equal(t, Viridis(1), img.RGBAAt(44, 44))
}

func TestHeatmapScaleBar(t *testing.T) {
	img := Heatmap(uniform3x3(), HeatmapOptions{})

	// Bar starts at x = pad + 72 + pad, spans the grid height top-down
	// from full to zero intensity.
	assert.Equal(t, Viridis(1), img.RGBAAt(88, 8))
	assert.Equal(t, Viridis(0), img.RGBAAt(88, 79))
}

func TestHeatmapCellSizeBounds(t *testing.T) {
	o := HeatmapOptions{}.withDefaults(10)
	assert.Equal(t, 24, o.CellSize)

	o = HeatmapOptions{}.withDefaults(300)
	assert.Equal(t, 13, o.CellSize, "long sequences shrink cells to bound image size")

	o = HeatmapOptions{}.withDefaults(100000)
	assert.Equal(t, 1, o.CellSize)

	o = HeatmapOptions{CellSize: 4}.withDefaults(10)
	assert.Equal(t, 4, o.CellSize, "explicit cell size wins")
}

func TestHeatmapPanics(t *testing.T) {
	assert.PanicsWithValue(t, "viz: empty attention matrix", func() {
		Heatmap(nil, HeatmapOptions{})
	})
	assert.Panics(t, func() {
		Heatmap([][]float32{{1, 0}, {1}}, HeatmapOptions{})
	})
}

func TestHeatmapPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attn.png")
	require.NoError(t, HeatmapPNG(path, uniform3x3(), HeatmapOptions{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 142, img.Bounds().Dx())
	assert.Equal(t, 88, img.Bounds().Dy())
}

func TestWritePNGBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "attn.png")
	err := HeatmapPNG(path, uniform3x3(), HeatmapOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating image file")
}
