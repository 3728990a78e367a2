package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/internal/viz"
)

var (
	attnOut      string
	attnPNG      bool
	attnHTML     bool
	attnASCII    bool
	attnLayer    int
	attnHead     int
	attnColormap string
	attnNorm     string
	attnCellSize int
)

// attentionCmd renders attention weights as persistent artifacts
var attentionCmd = &cobra.Command{
	Use:   "attention",
	Short: "Render attention weights as heatmaps",
	Long: `Runs a forward pass and renders the attention weights of every head.

By default this writes one PNG heatmap per layer and head, a tiled
layer-by-head overview grid, and a self-contained HTML report into the
output directory. --ascii prints one head straight to the terminal
instead of writing files.

Examples:
  prism attention --text "the cat sat on the mat"
  prism attention --ascii --layer 1 --head 2
  prism attention --model ./bert-base-uncased --layer 11 --out report`,
	RunE: runAttention,
}

func init() {
	attentionCmd.Flags().StringVarP(&text, "text", "t", defaultText, "Input text")
	attentionCmd.Flags().StringVarP(&attnOut, "out", "o", "", "Output directory (default from prism.yaml, else \"out\")")
	attentionCmd.Flags().BoolVar(&attnPNG, "png", false, "Write PNG heatmaps (on by default unless --ascii is given)")
	attentionCmd.Flags().BoolVar(&attnHTML, "html", false, "Write the HTML report (on by default unless --ascii is given)")
	attentionCmd.Flags().BoolVar(&attnASCII, "ascii", false, "Print a terminal heatmap instead of writing files")
	attentionCmd.Flags().IntVar(&attnLayer, "layer", -1, "Restrict output to one layer (ascii default: last)")
	attentionCmd.Flags().IntVar(&attnHead, "head", -1, "Restrict output to one head (ascii default: 0)")
	attentionCmd.Flags().StringVar(&attnColormap, "colormap", "", "Colormap: viridis or grayscale")
	attentionCmd.Flags().StringVar(&attnNorm, "normalize", "", "Weight scaling: none, row or global")
	attentionCmd.Flags().IntVar(&attnCellSize, "cell-size", 0, "Heatmap cell size in pixels")
}

func runAttention(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ids, labels, err := s.encode(text)
	if err != nil {
		return err
	}
	_, trace := s.enc.ForwardWithTrace(s.idsTensor(ids))

	if attnLayer >= trace.NumLayers() {
		return fmt.Errorf("layer %d out of range, model has %d layers", attnLayer, trace.NumLayers())
	}
	if attnHead >= trace.NumHeads {
		return fmt.Errorf("head %d out of range, model has %d heads", attnHead, trace.NumHeads)
	}

	cmapName := attnColormap
	if cmapName == "" {
		cmapName = s.file.Viz.Colormap
	}
	cmap, err := viz.ParseColormap(cmapName)
	if err != nil {
		return err
	}
	normName := attnNorm
	if normName == "" {
		normName = s.file.Viz.Normalize
	}
	norm, err := viz.ParseNormalize(normName)
	if err != nil {
		return err
	}
	cell := attnCellSize
	if cell == 0 {
		cell = s.file.Viz.CellSize
	}

	fmt.Printf("Model: %s\n", s.source)
	fmt.Printf("Sequence: %d tokens, %d layers x %d heads\n", trace.SeqLen, trace.NumLayers(), trace.NumHeads)
	fmt.Println("Attention entropy per head (nats):")
	for l := 0; l < trace.NumLayers(); l++ {
		fmt.Printf("  layer %2d:", l)
		for h := 0; h < trace.NumHeads; h++ {
			fmt.Printf(" %5.2f", trace.Entropy(l, h))
		}
		fmt.Println()
	}
	fmt.Println()

	if attnASCII {
		l := attnLayer
		if l < 0 {
			l = trace.NumLayers() - 1
		}
		h := attnHead
		if h < 0 {
			h = 0
		}
		fmt.Printf("Layer %d, head %d (rows are queries, columns are keys):\n", l, h)
		fmt.Print(viz.ASCII(trace.Weights(l, h), viz.ASCIIOptions{
			Labels:    labels,
			Colormap:  cmap,
			Normalize: norm,
		}))
	}

	writePNG, writeHTML := attnPNG, attnHTML
	if !attnASCII && !attnPNG && !attnHTML {
		writePNG, writeHTML = true, true
	}
	if !writePNG && !writeHTML {
		return nil
	}

	outDir := attnOut
	if outDir == "" {
		outDir = s.file.Output.Dir
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	opts := viz.HeatmapOptions{
		CellSize:  cell,
		Labels:    labels,
		Colormap:  cmap,
		Normalize: norm,
	}

	var written []string
	if writePNG {
		for l := 0; l < trace.NumLayers(); l++ {
			if attnLayer >= 0 && l != attnLayer {
				continue
			}
			for h := 0; h < trace.NumHeads; h++ {
				if attnHead >= 0 && h != attnHead {
					continue
				}
				o := opts
				o.Title = fmt.Sprintf("layer %d head %d", l, h)
				path := filepath.Join(outDir, fmt.Sprintf("attention_l%d_h%d.png", l, h))
				if err := viz.HeatmapPNG(path, trace.Weights(l, h), o); err != nil {
					return err
				}
				written = append(written, path)
			}
		}

		gridOpts := opts
		gridOpts.CellSize = 0 // the grid picks its own tile size
		gridOpts.Title = fmt.Sprintf("attention for %q", text)
		gridPath := filepath.Join(outDir, "attention_grid.png")
		if err := viz.GridPNG(gridPath, trace, gridOpts); err != nil {
			return err
		}
		written = append(written, gridPath)
	}
	if writeHTML {
		htmlPath := filepath.Join(outDir, "attention.html")
		if err := viz.HTMLReport(htmlPath, trace, labels, text); err != nil {
			return err
		}
		written = append(written, htmlPath)
	}

	fmt.Printf("Wrote %d files to %s:\n", len(written), outDir)
	for _, p := range written {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
