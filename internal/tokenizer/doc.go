// Package tokenizer turns text into the token ID sequences the encoder
// consumes, and back.
//
// The tokenizer package implements several tokenization strategies behind
// one interface:
//   - BPE: Byte-Pair Encoding from HuggingFace tokenizer.json, with
//     optional GPT-2 byte-level input mapping
//   - WordPiece: BERT's longest-match-first algorithm ("##" pieces)
//   - Unigram: SentencePiece-style scored merges ("▁" whitespace marker)
//   - tiktoken: BPE tokenizer used by GPT-3/GPT-4 (cl100k_base, p50k_base)
//   - Basic: whitespace and punctuation splitting over an explicit vocab
//
// AutoLoadTokenizer picks the right implementation from a model directory,
// a tokenizer.json path, or a tiktoken model or encoding name.
//
// Example usage:
//
//	tok, err := tokenizer.AutoLoadTokenizer("path/to/bert-base-uncased")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("attention is all you need")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Per-token pieces for labeling plots
//	pieces, err := tok.DecodeTokens(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer
