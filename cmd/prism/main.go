// Package main provides the Prism CLI.
//
// Prism runs Transformer encoder walkthroughs from the terminal: tokenize
// text, push it through an encoder, and turn the attention weights into
// PNG heatmaps, HTML reports or an interactive terminal explorer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

// defaultText keeps every command runnable without arguments.
const defaultText = "the quick brown fox jumps over the lazy dog"

var (
	// Global flags
	modelPath  string
	preset     string
	randomInit bool
	seed       int64
	encoding   string
	configPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Prism - Transformer encoder internals, step by step",
	Long: `Prism is a pure-Go Transformer encoder built for inspection.

Every command runs a real forward pass and exposes one part of the
pipeline: token embeddings, positional encodings, per-layer hidden
states, and the attention weights of every head.

Weights come from a checkpoint (--model) or are randomly initialized
from a named preset (--preset, --seed), so every command works without
downloading anything.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the Prism version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Prism %s\n", version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "Checkpoint file (.prism/.safetensors) or model directory")
	rootCmd.PersistentFlags().StringVarP(&preset, "preset", "p", "tiny", "Architecture preset for random weights: tiny, base, bert-base")
	rootCmd.PersistentFlags().BoolVar(&randomInit, "random", false, "Ignore any configured model path and use random weights")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for random weight initialization")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "", "Tiktoken encoding name (e.g. cl100k_base) instead of the default tokenizer")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to prism.yaml (default: working dir, then user config dir)")

	// Add commands to root
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(attentionCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(positionalCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
