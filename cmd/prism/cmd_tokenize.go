package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/tokenizer"
)

var tokenizeAddSpecials bool

// tokenizeCmd shows the tokenizer's view of the input
var tokenizeCmd = &cobra.Command{
	Use:   "tokenize",
	Short: "Tokenize text without running the model",
	Long: `Shows how the resolved tokenizer splits the input: one row per token
with its id and piece, the tokenizer's special tokens, and the decoded
round trip.

Examples:
  prism tokenize --text "unbelievable"
  prism tokenize --encoding cl100k_base --text "unbelievable"
  prism tokenize --model ./bert-base-uncased --add-specials --text "hello"`,
	RunE: runTokenize,
}

func init() {
	tokenizeCmd.Flags().StringVarP(&text, "text", "t", defaultText, "Input text")
	tokenizeCmd.Flags().BoolVar(&tokenizeAddSpecials, "add-specials", false, "Wrap the ids with BOS/EOS the way the encoder sees them")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	tok, err := newTokenizerOnly(cmd)
	if err != nil {
		return err
	}

	ids, err := tok.Encode(text)
	if err != nil {
		return fmt.Errorf("tokenizing: %w", err)
	}
	if tokenizeAddSpecials {
		ids = tokenizer.AddSpecialTokens(tok, ids)
	}

	pieces, err := tok.DecodeTokens(ids)
	if err != nil {
		return fmt.Errorf("decoding token pieces: %w", err)
	}

	kind := strings.TrimPrefix(fmt.Sprintf("%T", tok), "*tokenizer.")
	fmt.Printf("Tokenizer: %s, vocab size %d\n", kind, tok.VocabSize())
	fmt.Println()

	fmt.Printf("Input: %q\n", text)
	fmt.Printf("Tokens (%d):\n", len(ids))
	for i, id := range ids {
		marker := ""
		if tok.IsSpecialToken(id) {
			marker = "  (special)"
		}
		fmt.Printf("  %3d  %6d  %s%s\n", i, id, pieces[i], marker)
	}
	fmt.Println()

	printSpecials(tok)

	decoded, err := tok.Decode(ids)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	fmt.Printf("Round trip: %q\n", decoded)
	return nil
}

// printSpecials lists the special token ids the tokenizer defines.
func printSpecials(tok tokenizer.Tokenizer) {
	specials := []struct {
		name string
		id   int32
	}{
		{"bos", tok.BosToken()},
		{"eos", tok.EosToken()},
		{"pad", tok.PadToken()},
		{"unk", tok.UnkToken()},
	}

	var parts []string
	for _, s := range specials {
		if s.id >= 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s.name, s.id))
		}
	}
	if len(parts) == 0 {
		fmt.Println("Special tokens: none")
		return
	}
	fmt.Printf("Special tokens: %s\n", strings.Join(parts, " "))
}
