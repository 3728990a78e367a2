package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HFTokenizerType identifies the tokenizer implementation type.
type HFTokenizerType string

const (
	// HFTypeBPE indicates Byte-Pair Encoding tokenizer.
	HFTypeBPE HFTokenizerType = "BPE"

	// HFTypeWordPiece indicates WordPiece tokenizer (BERT-style).
	HFTypeWordPiece HFTokenizerType = "WordPiece"

	// HFTypeUnigram indicates Unigram tokenizer (SentencePiece-style).
	HFTypeUnigram HFTokenizerType = "Unigram"

	// HFTypeUnknown indicates an unknown or unsupported tokenizer type.
	HFTypeUnknown HFTokenizerType = "Unknown"
)

// HFTokenizerMetadata contains metadata from tokenizer.json.
type HFTokenizerMetadata struct {
	Type          HFTokenizerType
	VocabSize     int
	HasBOS        bool
	HasEOS        bool
	HasPAD        bool
	HasUNK        bool
	ModelName     string
	TokenizerType string
}

// HuggingFaceTokenizerConfig represents a subset of tokenizer.json structure.
// It covers the BPE and WordPiece layouts; Unigram vocabularies store their
// vocab as [piece, score] pairs and are parsed separately.
type HuggingFaceTokenizerConfig struct {
	Model struct {
		Type                    string            `json:"type"`
		Vocab                   map[string]int    `json:"vocab"`
		Merges                  []json.RawMessage `json:"merges"`
		ContinuingSubwordPrefix string            `json:"continuing_subword_prefix"`
	} `json:"model"`
	Normalizer struct {
		Type      string `json:"type"`
		Lowercase *bool  `json:"lowercase"`
	} `json:"normalizer"`
	PreTokenizer struct {
		Type          string `json:"type"`
		PreTokenizers []struct {
			Type string `json:"type"`
		} `json:"pretokenizers"`
	} `json:"pre_tokenizer"`
	AddedTokens []AddedToken `json:"added_tokens"`
}

// AddedToken is one added_tokens entry from tokenizer.json.
type AddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// usesByteLevel reports whether the pre-tokenizer chain contains a ByteLevel
// stage, directly or inside a Sequence.
func (c *HuggingFaceTokenizerConfig) usesByteLevel() bool {
	if c.PreTokenizer.Type == "ByteLevel" {
		return true
	}
	for _, pt := range c.PreTokenizer.PreTokenizers {
		if pt.Type == "ByteLevel" {
			return true
		}
	}
	return false
}

// applyAddedTokens registers special tokens declared in added_tokens and
// maps the conventional names onto the bos/eos/pad/unk slots.
func applyAddedTokens(s *specialTokens, added []AddedToken) {
	for _, tok := range added {
		if !tok.Special {
			continue
		}
		id := int32(tok.ID) //nolint:gosec // G115: integer overflow conversion int -> int32
		s.special[id] = true

		// Try to identify standard special tokens.
		content := strings.ToLower(tok.Content)
		switch {
		case strings.Contains(content, "bos") || content == "<s>" || content == "[cls]":
			s.bos = id
		case strings.Contains(content, "eos") || content == "</s>" || content == "[sep]":
			s.eos = id
		case strings.Contains(content, "pad"):
			s.pad = id
		case strings.Contains(content, "unk"):
			s.unk = id
		}
	}
}

// DetectHFTokenizerType determines the tokenizer type from tokenizer.json.
//
//nolint:gocognit,gocyclo,cyclop // JSON parsing requires nested type assertions for complex structures.
func DetectHFTokenizerType(path string) (*HFTokenizerMetadata, error) {
	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	metadata := &HFTokenizerMetadata{
		Type: HFTypeUnknown,
	}

	// Check model type.
	if model, ok := raw["model"].(map[string]interface{}); ok {
		if tokType, ok := model["type"].(string); ok {
			metadata.TokenizerType = tokType
			switch tokType {
			case "BPE":
				metadata.Type = HFTypeBPE
			case "WordPiece":
				metadata.Type = HFTypeWordPiece
			case "Unigram":
				metadata.Type = HFTypeUnigram
			}
		}

		// Get vocab size. BPE and WordPiece store the vocab as an object,
		// Unigram as a list of [piece, score] pairs.
		if vocab, ok := model["vocab"].(map[string]interface{}); ok {
			metadata.VocabSize = len(vocab)
		} else if vocab, ok := model["vocab"].([]interface{}); ok {
			metadata.VocabSize = len(vocab)
		}
	}

	// Check for special tokens.
	if addedTokens, ok := raw["added_tokens"].([]interface{}); ok {
		for _, tokenRaw := range addedTokens {
			if token, ok := tokenRaw.(map[string]interface{}); ok {
				if content, ok := token["content"].(string); ok {
					switch content {
					case "<s>", "<bos>", "[CLS]":
						metadata.HasBOS = true
					case "</s>", "<eos>", "[SEP]":
						metadata.HasEOS = true
					case "<pad>", "[PAD]":
						metadata.HasPAD = true
					case "<unk>", "[UNK]":
						metadata.HasUNK = true
					}
				}
			}
		}
	}

	return metadata, nil
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory
// or directly from a tokenizer.json file.
//
// A directory should contain tokenizer.json; BERT checkpoints that ship only
// a vocab.txt load as WordPiece from that instead.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	tokenizerPath := modelPath
	if info, err := os.Stat(modelPath); err == nil && info.IsDir() {
		tokenizerPath = filepath.Join(modelPath, "tokenizer.json")
		if _, err := os.Stat(tokenizerPath); err != nil {
			vocabPath := filepath.Join(modelPath, "vocab.txt")
			if _, err := os.Stat(vocabPath); err == nil {
				return LoadWordPieceVocab(vocabPath)
			}
			return nil, fmt.Errorf("no tokenizer.json or vocab.txt in %s", modelPath)
		}
	}

	// Detect tokenizer type.
	metadata, err := DetectHFTokenizerType(tokenizerPath)
	if err != nil {
		return nil, err
	}

	// Load based on type.
	switch metadata.Type {
	case HFTypeBPE:
		return LoadBPEFromHuggingFace(tokenizerPath)
	case HFTypeWordPiece:
		return LoadWordPieceFromHuggingFace(tokenizerPath)
	case HFTypeUnigram:
		return LoadUnigramFromHuggingFace(tokenizerPath)
	default:
		return nil, fmt.Errorf("unknown tokenizer type: %s", metadata.TokenizerType)
	}
}

// TryLoadTikToken attempts to load a tiktoken-compatible tokenizer.
//
// This is a fallback for models that use OpenAI-style tokenizers.
func TryLoadTikToken(modelName string) (Tokenizer, error) {
	// Map common model names to tiktoken encodings.
	encodingMap := map[string]string{
		"gpt-4":                  "cl100k_base",
		"gpt-3.5-turbo":          "cl100k_base",
		"gpt-3":                  "p50k_base",
		"text-davinci-003":       "p50k_base",
		"text-embedding-ada-002": "cl100k_base",
	}

	if encoding, ok := encodingMap[modelName]; ok {
		return NewTikToken(encoding)
	}

	// Try to use the model name directly.
	return NewTikTokenForModel(modelName)
}

// AutoLoadTokenizer attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from a HuggingFace model directory or tokenizer.json path
//  2. Load tiktoken by model name
//  3. Load tiktoken by encoding name
func AutoLoadTokenizer(pathOrName string) (Tokenizer, error) {
	// Strategy 1: Try as a HuggingFace model directory or file.
	if _, err := os.Stat(pathOrName); err == nil {
		tokenizer, err := LoadFromHuggingFace(pathOrName)
		if err == nil {
			return tokenizer, nil
		}
	}

	// Strategy 2: Try as tiktoken model name.
	if tokenizer, err := TryLoadTikToken(pathOrName); err == nil {
		return tokenizer, nil
	}

	// Strategy 3: Try as tiktoken encoding name.
	if tokenizer, err := NewTikToken(pathOrName); err == nil {
		return tokenizer, nil
	}

	return nil, fmt.Errorf("failed to auto-load tokenizer from %q", pathOrName)
}
