package main

import (
	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/internal/tui"
)

// exploreCmd opens the interactive attention browser
var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse attention heads interactively in the terminal",
	Long: `Opens a terminal UI over one forward pass. Arrow keys move between
layers and heads, the selected head renders as a shaded attention grid
with token labels, q quits.

Example:
  prism explore --text "the cat sat on the mat"`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVarP(&text, "text", "t", defaultText, "Input text")
}

func runExplore(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ids, labels, err := s.encode(text)
	if err != nil {
		return err
	}
	_, trace := s.enc.ForwardWithTrace(s.idsTensor(ids))

	return tui.Run(trace, labels)
}
