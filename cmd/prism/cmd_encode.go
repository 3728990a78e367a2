package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/tensor"
)

var text string

// encodeCmd prints one annotated forward pass
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Run text through the encoder and print every stage",
	Long: `Tokenizes the input, runs one encoder forward pass and prints what
happens at each stage: token ids and pieces, the scaled token embeddings,
the sum with the positional encoding, every layer's output, and a preview
of the final hidden states.

Examples:
  prism encode --text "attention is all you need"
  prism encode --preset base --seed 7 --text "hello world"
  prism encode --model ./bert-base-uncased --text "hello world"`,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&text, "text", "t", defaultText, "Input text")
}

func runEncode(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ids, labels, err := s.encode(text)
	if err != nil {
		return err
	}

	fmt.Printf("Model: %s\n", s.source)
	fmt.Printf("Architecture: d_model=%d heads=%d layers=%d ffn=%d vocab=%d\n",
		s.cfg.DModel, s.cfg.NumHeads, s.cfg.NumLayers, s.cfg.FFNDim, s.cfg.VocabSize)
	fmt.Printf("Parameters: %d\n", s.enc.NumParameters())
	fmt.Println()

	fmt.Printf("Input: %q\n", text)
	fmt.Printf("Tokens (%d):\n", len(ids))
	for i, id := range ids {
		fmt.Printf("  %3d  %6d  %s\n", i, id, labels[i])
	}
	fmt.Println()

	out, trace := s.enc.ForwardWithTrace(s.idsTensor(ids))

	seq, d := trace.SeqLen, trace.DModel
	stage := func(name string, data []float32) error {
		t, err := tensor.FromSlice(data, tensor.Shape{1, seq, d}, s.backend)
		if err != nil {
			return err
		}
		fmt.Printf("  %-28s %s\n", name, t.Summary())
		return nil
	}

	embName := "embeddings"
	if !s.cfg.NoScaleEmbed {
		embName = "embeddings * sqrt(d_model)"
	}

	fmt.Println("Forward pass:")
	if err := stage(embName, trace.Embedded); err != nil {
		return err
	}
	if err := stage("+ positional encoding", trace.PostPositional); err != nil {
		return err
	}
	for i := range trace.Layers {
		if err := stage(fmt.Sprintf("layer %d", i), trace.Layers[i].Hidden); err != nil {
			return err
		}
	}
	fmt.Println()

	fmt.Printf("Final hidden states: %s\n", out.Summary())
	fmt.Println(out.Preview(3))
	return nil
}
