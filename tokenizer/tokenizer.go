// Package tokenizer provides text tokenization for Transformer encoders in Prism.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - WordPiece: BERT-style subword tokenization with ## continuations
//   - BPE: Byte-Pair Encoding from HuggingFace
//   - Unigram: SentencePiece-style probabilistic segmentation
//   - TikToken: OpenAI BPE tokenizers (GPT-3, GPT-4)
//   - Basic: whitespace/punctuation word-level splitting for demos
//
// Example usage:
//
//	import "github.com/prism-ml/prism/tokenizer"
//
//	// Load from a HuggingFace model directory
//	tok, err := tokenizer.LoadFromHuggingFace("./bert-base-uncased")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Per-token strings for attention plot labels
//	labels, err := tok.DecodeTokens(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/prism-ml/prism/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// BasicTokenizer is a word-level tokenizer with a fixed or growable vocabulary.
type BasicTokenizer = tokenizer.BasicTokenizer

// BPETokenizer is a Byte-Pair Encoding tokenizer (GPT-2 style byte level).
type BPETokenizer = tokenizer.BPETokenizer

// WordPieceTokenizer is a BERT-style WordPiece tokenizer.
type WordPieceTokenizer = tokenizer.WordPieceTokenizer

// UnigramTokenizer is a SentencePiece-style Unigram tokenizer.
type UnigramTokenizer = tokenizer.UnigramTokenizer

// HFTokenizerMetadata describes a tokenizer.json file without fully loading it.
type HFTokenizerMetadata = tokenizer.HFTokenizerMetadata

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// NewBasicTokenizer creates a word-level tokenizer over a fixed vocabulary.
//
// Unknown words map to the [UNK] token if the vocabulary defines one.
func NewBasicTokenizer(vocab map[string]int32) *BasicTokenizer {
	return tokenizer.NewBasicTokenizer(vocab)
}

// NewDynamicTokenizer creates a word-level tokenizer that assigns fresh IDs
// to unseen words until capacity is reached.
//
// Useful for small demos where no pre-built vocabulary exists.
func NewDynamicTokenizer(capacity int) (*BasicTokenizer, error) {
	return tokenizer.NewDynamicTokenizer(capacity)
}

// NewWordPieceTokenizer creates a WordPiece tokenizer over the given vocabulary.
//
// The vocabulary should use ## prefixes for continuation subwords,
// matching BERT's convention.
func NewWordPieceTokenizer(vocab map[string]int32) *WordPieceTokenizer {
	return tokenizer.NewWordPieceTokenizer(vocab)
}

// LoadWordPieceVocab loads a WordPiece tokenizer from a vocab.txt file
// (one token per line, line number = token ID).
func LoadWordPieceVocab(path string) (*WordPieceTokenizer, error) {
	return tokenizer.LoadWordPieceVocab(path)
}

// LoadWordPieceFromHuggingFace loads a WordPiece tokenizer from a
// HuggingFace tokenizer.json file.
func LoadWordPieceFromHuggingFace(path string) (*WordPieceTokenizer, error) {
	return tokenizer.LoadWordPieceFromHuggingFace(path)
}

// LoadBPEFromHuggingFace loads a BPE tokenizer from a HuggingFace
// tokenizer.json file.
func LoadBPEFromHuggingFace(path string) (*BPETokenizer, error) {
	return tokenizer.LoadBPEFromHuggingFace(path)
}

// LoadUnigramFromHuggingFace loads a Unigram tokenizer from a HuggingFace
// tokenizer.json file.
func LoadUnigramFromHuggingFace(path string) (*UnigramTokenizer, error) {
	return tokenizer.LoadUnigramFromHuggingFace(path)
}

// DetectHFTokenizerType inspects a tokenizer.json file and reports which
// tokenizer model it uses without building the full tokenizer.
func DetectHFTokenizerType(path string) (*HFTokenizerMetadata, error) {
	return tokenizer.DetectHFTokenizerType(path)
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory.
//
// The directory should contain tokenizer.json. The tokenizer model type
// (WordPiece, BPE, or Unigram) is detected automatically.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	return tokenizer.LoadFromHuggingFace(modelPath)
}

// AutoLoad attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from HuggingFace model directory (tokenizer.json)
//  2. Load tiktoken by model name
//  3. Load tiktoken by encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	return tokenizer.AutoLoadTokenizer(pathOrName)
}

// AddSpecialTokens surrounds ids with the tokenizer's BOS and EOS tokens
// where defined ([CLS] ... [SEP] for BERT-style vocabularies).
func AddSpecialTokens(tok Tokenizer, ids []int32) []int32 {
	return tokenizer.AddSpecialTokens(tok, ids)
}

// ExampleBPE creates a minimal BPE tokenizer for testing and examples.
func ExampleBPE() Tokenizer {
	return tokenizer.ExampleBPEVocab()
}
