package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Layout constants. Text uses basicfont.Face7x13, so character metrics
// are fixed.
const (
	pad           = 8
	charW         = 7
	charH         = 13
	maxLabelChars = 8
	scaleBarW     = 14
	defaultCell   = 24
	maxGridPx     = 4096
)

// Page palette, shared by the PNG and HTML renderers.
var (
	bgColor  = color.RGBA{R: 13, G: 17, B: 23, A: 255}
	fgColor  = color.RGBA{R: 201, G: 209, B: 217, A: 255}
	dimColor = color.RGBA{R: 139, G: 148, B: 158, A: 255}
)

// HeatmapOptions controls attention heatmap rendering.
type HeatmapOptions struct {
	CellSize   int      // pixels per attention cell; 0 means 24, shrunk to bound long sequences
	Labels     []string // per-position token labels on both axes; nil for bare axes
	Title      string
	Colormap   Colormap // nil means Viridis
	Normalize  Normalize
	NoScaleBar bool // drop the value scale on the right edge
}

func (o HeatmapOptions) withDefaults(seq int) HeatmapOptions {
	if o.CellSize == 0 {
		o.CellSize = defaultCell
	}
	if seq > 0 && o.CellSize*seq > maxGridPx {
		o.CellSize = maxGridPx / seq
		if o.CellSize < 1 {
			o.CellSize = 1
		}
	}
	if o.Colormap == nil {
		o.Colormap = Viridis
	}
	return o
}

// Heatmap renders one attention matrix. weights[i][j] is how strongly query
// position i attends to key position j: queries run top to bottom, keys left
// to right. Panics on an empty or ragged matrix; attention matrices are
// square by construction.
func Heatmap(weights [][]float32, opts HeatmapOptions) *image.RGBA {
	seq := len(weights)
	if seq == 0 {
		panic("viz: empty attention matrix")
	}
	for i, row := range weights {
		if len(row) != seq {
			panic(fmt.Sprintf("viz: attention matrix must be square, row %d has %d of %d columns", i, len(row), seq))
		}
	}
	opts = opts.withDefaults(seq)
	norm := opts.Normalize.apply(weights)

	labels := sanitizeLabels(opts.Labels, seq)
	labelChars := 0
	for _, l := range labels {
		if len(l) > labelChars {
			labelChars = len(l)
		}
	}

	cell := opts.CellSize
	gridW, gridH := seq*cell, seq*cell

	titleH := 0
	if opts.Title != "" {
		titleH = charH + pad
	}
	rowLabelW, colLabelH := 0, 0
	if labelChars > 0 {
		rowLabelW = labelChars*charW + pad
		colLabelH = labelChars*charH + pad
	}
	scaleW := 0
	if !opts.NoScaleBar {
		scaleW = pad + scaleBarW + 4 + 4*charW
	}

	width := pad + rowLabelW + gridW + scaleW + pad
	height := pad + titleH + gridH + colLabelH + pad

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	originX := pad + rowLabelW
	originY := pad + titleH

	if opts.Title != "" {
		drawString(img, pad, pad, opts.Title, fgColor)
	}

	for i := 0; i < seq; i++ {
		for j := 0; j < seq; j++ {
			fillRect(img, originX+j*cell, originY+i*cell, cell, cell, opts.Colormap(float64(norm[i][j])))
		}
	}

	// Query labels sit right-aligned beside their row, key labels stack
	// vertically under their column.
	for i, label := range labels {
		if label == "" {
			continue
		}
		x := originX - pad - len(label)*charW
		y := originY + i*cell + (cell-charH)/2
		drawString(img, x, y, label, dimColor)

		x = originX + i*cell + (cell-charW)/2
		y = originY + gridH + pad
		drawVString(img, x, y, label, dimColor)
	}

	if !opts.NoScaleBar {
		drawScaleBar(img, originX+gridW+pad, originY, gridH, opts.Colormap, scaleMaxLabel(weights, opts.Normalize))
	}

	return img
}

// HeatmapPNG renders one attention matrix and writes it to path.
func HeatmapPNG(path string, weights [][]float32, opts HeatmapOptions) error {
	return WritePNG(path, Heatmap(weights, opts))
}

// WritePNG writes an image to path in PNG format.
func WritePNG(path string, img image.Image) error {
	//nolint:gosec // G304: output path comes from user input, which is expected for artifact files
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// scaleMaxLabel returns the tick text for the top of the scale bar: the
// weight value that maps to full intensity under the normalization mode.
func scaleMaxLabel(weights [][]float32, mode Normalize) string {
	switch mode {
	case NormalizeGlobal:
		var max float32
		for _, row := range weights {
			if m := rowMax(row); m > max {
				max = m
			}
		}
		return fmt.Sprintf("%.2f", max)
	case NormalizeRow:
		// Each row is scaled to its own maximum.
		return "max"
	default:
		return "1.00"
	}
}

func drawScaleBar(img *image.RGBA, x, y, h int, cmap Colormap, maxLabel string) {
	for py := 0; py < h; py++ {
		t := 1.0
		if h > 1 {
			t = 1 - float64(py)/float64(h-1)
		}
		fillRect(img, x, y+py, scaleBarW, 1, cmap(t))
	}
	drawString(img, x+scaleBarW+4, y, maxLabel, dimColor)
	drawString(img, x+scaleBarW+4, y+h-charH, "0.00", dimColor)
}

// drawString draws s with its top-left corner at (x, y).
func drawString(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+charH-2),
	}
	d.DrawString(s)
}

// drawVString draws s one character per line, reading downward.
func drawVString(img *image.RGBA, x, y int, s string, c color.RGBA) {
	for i := 0; i < len(s); i++ {
		drawString(img, x, y+i*charH, s[i:i+1], c)
	}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Src)
}

// sanitizeLabels truncates labels to the layout limit and maps runes the
// bitmap font cannot show to ASCII stand-ins. The byte-level space markers
// of BPE vocabularies become underscores.
func sanitizeLabels(labels []string, seq int) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, seq)
	for i := 0; i < seq && i < len(labels); i++ {
		runes := []rune(labels[i])
		if len(runes) > maxLabelChars {
			runes = runes[:maxLabelChars]
		}
		b := make([]byte, 0, len(runes))
		for _, r := range runes {
			switch {
			case r == 'Ġ' || r == '▁':
				b = append(b, '_')
			case r >= 0x20 && r <= 0x7e:
				b = append(b, byte(r))
			default:
				b = append(b, '?')
			}
		}
		out[i] = string(b)
	}
	return out
}
