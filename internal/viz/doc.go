// Package viz renders attention weights captured during encoder inference.
//
// The viz package turns a single head's square attention matrix, or a whole
// forward trace, into persistent artifacts:
//   - Heatmap/HeatmapPNG: one head as a labeled PNG with a scale bar
//   - Grid/GridPNG: every layer and head tiled into one overview PNG
//   - ASCII: a shaded terminal grid for quick inspection
//   - HTMLReport: a self-contained interactive page, no server needed
//
// All renderers share the same colormaps (viridis, grayscale) and
// normalization modes (absolute, per-row, global).
//
// Example usage:
//
//	_, trace := enc.ForwardWithTrace(ids)
//	weights := trace.Weights(0, 0)
//
//	// Terminal preview
//	fmt.Print(viz.ASCII(weights, viz.ASCIIOptions{Labels: labels}))
//
//	// Persistent artifacts
//	err := viz.HeatmapPNG("attn_l0_h0.png", weights, viz.HeatmapOptions{
//	    Labels: labels,
//	    Title:  "layer 0, head 0",
//	})
//	err = viz.HTMLReport("report.html", trace, labels, "my sentence")
package viz
