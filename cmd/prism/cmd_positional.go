package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/backend/cpu"
	"github.com/prism-ml/prism/internal/config"
	"github.com/prism-ml/prism/internal/viz"
	"github.com/prism-ml/prism/nn"
)

var (
	posDim  int
	posLen  int
	posOut  string
	posCSV  string
	posCmap string
)

// positionalCmd renders the positional encoding table
var positionalCmd = &cobra.Command{
	Use:   "positional",
	Short: "Render the sinusoidal positional encoding table",
	Long: `Computes the sinusoidal positional encoding table and renders it as a
PNG: positions run top to bottom, encoding dimensions left to right.
Even columns hold sines, odd columns cosines, with wavelengths growing
geometrically from 2*pi to 10000*2*pi.

--csv additionally writes the raw values for inspection in other tools.

Examples:
  prism positional --dim 64 --len 128
  prism positional --dim 512 --len 512 --out pe.png --csv pe.csv`,
	RunE: runPositional,
}

func init() {
	positionalCmd.Flags().IntVar(&posDim, "dim", 64, "Encoding dimension")
	positionalCmd.Flags().IntVar(&posLen, "len", 128, "Number of positions")
	positionalCmd.Flags().StringVarP(&posOut, "out", "o", "", "PNG path (default <output dir>/positional.png)")
	positionalCmd.Flags().StringVar(&posCSV, "csv", "", "Also write the raw table as CSV to this path")
	positionalCmd.Flags().StringVar(&posCmap, "colormap", "", "Colormap: viridis or grayscale")
}

func runPositional(cmd *cobra.Command, args []string) error {
	if posDim <= 0 || posDim%2 != 0 {
		return fmt.Errorf("dim must be positive and even, got %d", posDim)
	}
	if posLen <= 0 {
		return fmt.Errorf("len must be positive, got %d", posLen)
	}

	fileCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cmapName := posCmap
	if cmapName == "" {
		cmapName = fileCfg.Viz.Colormap
	}
	cmap, err := viz.ParseColormap(cmapName)
	if err != nil {
		return err
	}

	pe := nn.NewSinusoidalPositionalEncoding(posLen, posDim, cpu.New())
	data := pe.Encoding.Data()

	// Remap [-1, 1] onto the colormap's [0, 1] domain.
	rows := make([][]float32, posLen)
	for i := range rows {
		row := make([]float32, posDim)
		for j := range row {
			row[j] = (data[i*posDim+j] + 1) / 2
		}
		rows[i] = row
	}

	out := posOut
	if out == "" {
		if err := os.MkdirAll(fileCfg.Output.Dir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		out = filepath.Join(fileCfg.Output.Dir, "positional.png")
	}

	opts := viz.HeatmapOptions{
		Colormap: cmap,
		Title:    fmt.Sprintf("sinusoidal positional encoding  len=%d dim=%d", posLen, posDim),
	}
	if err := viz.MatrixPNG(out, rows, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d positions x %d dims)\n", out, posLen, posDim)

	if posCSV != "" {
		if err := writePositionalCSV(posCSV, data, posLen, posDim); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", posCSV)
	}
	return nil
}

// writePositionalCSV dumps the raw table, one position per row.
func writePositionalCSV(path string, data []float32, n, dim int) error {
	//nolint:gosec // G304: output path comes from user input, which is expected for artifact files
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}

	w := csv.NewWriter(f)
	record := make([]string, dim)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			record[j] = strconv.FormatFloat(float64(data[i*dim+j]), 'g', -1, 32)
		}
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing csv: %w", err)
	}
	return f.Close()
}
