package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BPETokenizer implements Byte-Pair Encoding tokenization.
//
// This is a pure Go implementation that can load HuggingFace tokenizer.json
// files. With byte-level mode enabled the input bytes are first mapped to the
// printable alphabet GPT-2 introduced, so arbitrary UTF-8 round-trips without
// ever needing an unknown token.
type BPETokenizer struct {
	specialTokens

	vocab        map[string]int32 // token -> ID
	reverseVocab map[int32]string // ID -> token
	mergeRanks   map[pair]int     // merge pair -> priority, lower first
	byteLevel    bool
}

type pair struct {
	first  string
	second string
}

// NewBPETokenizer creates a new BPE tokenizer from vocab and merges.
//
// The merges slice is ordered by priority: earlier merges apply first.
func NewBPETokenizer(vocab map[string]int32, merges []pair) *BPETokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	for token, id := range vocab {
		reverseVocab[id] = token
	}

	mergeRanks := make(map[pair]int, len(merges))
	for i, m := range merges {
		if _, ok := mergeRanks[m]; !ok {
			mergeRanks[m] = i
		}
	}

	return &BPETokenizer{
		specialTokens: newSpecialTokens(),
		vocab:         vocab,
		reverseVocab:  reverseVocab,
		mergeRanks:    mergeRanks,
	}
}

// SetSpecialTokens configures special token IDs. Pass -1 to leave one unset.
func (b *BPETokenizer) SetSpecialTokens(bos, eos, pad, unk int32) {
	b.set(bos, eos, pad, unk)
}

// SetByteLevel toggles GPT-2 style byte-to-unicode mapping of the input.
func (b *BPETokenizer) SetByteLevel(on bool) {
	b.byteLevel = on
}

// Encode converts text to token IDs using BPE.
//
// Words split on whitespace. In byte-level mode each word keeps its leading
// space instead, matching the "Ġword" entries of GPT-2 vocabularies.
func (b *BPETokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	var words []string
	if b.byteLevel {
		words = splitKeepingSpaces(text)
	} else {
		words = strings.Fields(text)
	}

	var tokens []int32
	for _, word := range words {
		chars := b.wordSymbols(word)

		// Apply BPE merges.
		for len(chars) > 1 {
			// Find the best pair to merge.
			bestIdx := -1
			bestRank := len(b.mergeRanks) + 1

			for i := 0; i < len(chars)-1; i++ {
				rank := b.getMergeRank(pair{chars[i], chars[i+1]})
				if rank < bestRank {
					bestIdx = i
					bestRank = rank
				}
			}

			if bestIdx == -1 {
				break
			}

			// Merge the pair.
			newChars := make([]string, 0, len(chars)-1)
			newChars = append(newChars, chars[:bestIdx]...)
			newChars = append(newChars, chars[bestIdx]+chars[bestIdx+1])
			newChars = append(newChars, chars[bestIdx+2:]...)
			chars = newChars
		}

		// Convert chars to token IDs.
		for _, char := range chars {
			if id, ok := b.vocab[char]; ok {
				tokens = append(tokens, id)
			} else if b.unk >= 0 {
				tokens = append(tokens, b.unk)
			}
		}
	}

	return tokens, nil
}

// wordSymbols splits a word into the initial symbols the merge loop starts
// from: runes normally, mapped bytes in byte-level mode.
func (b *BPETokenizer) wordSymbols(word string) []string {
	symbols := make([]string, 0, len(word))
	if b.byteLevel {
		for i := 0; i < len(word); i++ {
			symbols = append(symbols, byteToUnicode[word[i]])
		}
		return symbols
	}
	for _, r := range word {
		symbols = append(symbols, string(r))
	}
	return symbols
}

// getMergeRank returns the rank of a merge pair (lower is higher priority).
func (b *BPETokenizer) getMergeRank(p pair) int {
	if rank, ok := b.mergeRanks[p]; ok {
		return rank
	}
	return len(b.mergeRanks) + 1
}

// Decode converts token IDs back to text.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder

	for _, token := range tokens {
		text, ok := b.reverseVocab[token]
		if !ok {
			// Unknown token, use replacement.
			sb.WriteString("�")
			continue
		}
		if b.byteLevel {
			text = unmapByteLevel(text)
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// DecodeTokens returns each token as the vocabulary spells it, byte-level
// markers and all.
func (b *BPETokenizer) DecodeTokens(tokens []int32) ([]string, error) {
	pieces := make([]string, len(tokens))
	for i, token := range tokens {
		piece, ok := b.reverseVocab[token]
		if !ok {
			piece = "�"
		}
		pieces[i] = piece
	}
	return pieces, nil
}

// VocabSize returns the total vocabulary size.
func (b *BPETokenizer) VocabSize() int {
	return len(b.vocab)
}

// splitKeepingSpaces splits text so that each word keeps a single leading
// space. Runs of extra spaces become standalone space tokens.
func splitKeepingSpaces(text string) []string {
	var parts []string
	i := 0
	for i < len(text) {
		j := i
		if text[j] == ' ' {
			j++
		}
		for j < len(text) && text[j] != ' ' {
			j++
		}
		parts = append(parts, text[i:j])
		i = j
	}
	return parts
}

// LoadBPEFromHuggingFace loads a BPE tokenizer from tokenizer.json.
//
// This is a simplified loader that handles the most common HuggingFace format.
func LoadBPEFromHuggingFace(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config HuggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	// Build vocab.
	vocab := make(map[string]int32, len(config.Model.Vocab))
	for token, id := range config.Model.Vocab {
		vocab[token] = int32(id) //nolint:gosec // G115: integer overflow conversion int -> int32
	}

	merges, err := parseMerges(config.Model.Merges)
	if err != nil {
		return nil, err
	}

	tokenizer := NewBPETokenizer(vocab, merges)
	if config.usesByteLevel() {
		tokenizer.SetByteLevel(true)
	}
	applyAddedTokens(&tokenizer.specialTokens, config.AddedTokens)

	return tokenizer, nil
}

// parseMerges handles both merge encodings found in tokenizer.json files:
// "a b" strings in older files, ["a", "b"] arrays in newer ones.
func parseMerges(raw []json.RawMessage) ([]pair, error) {
	var merges []pair
	for i, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			parts := strings.Fields(s)
			if len(parts) == 2 {
				merges = append(merges, pair{parts[0], parts[1]})
			}
			continue
		}

		var arr [2]string
		if err := json.Unmarshal(entry, &arr); err != nil {
			return nil, fmt.Errorf("merge %d is neither \"a b\" nor [\"a\", \"b\"]", i)
		}
		merges = append(merges, pair{arr[0], arr[1]})
	}
	return merges, nil
}

// ExampleBPEVocab creates a minimal BPE tokenizer for testing.
func ExampleBPEVocab() *BPETokenizer {
	// Minimal vocab for demonstration.
	vocab := map[string]int32{
		"h":   0,
		"e":   1,
		"l":   2,
		"o":   3,
		"w":   4,
		"r":   5,
		"d":   6,
		" ":   7,
		"he":  8,
		"ll":  9,
		"o ":  10,
		"wor": 11,
		"ld":  12,
	}

	merges := []pair{
		{"h", "e"},
		{"l", "l"},
		{"o", " "},
		{"w", "o"},
		{"l", "d"},
	}

	tokenizer := NewBPETokenizer(vocab, merges)
	tokenizer.SetSpecialTokens(-1, -1, -1, -1)

	return tokenizer
}
