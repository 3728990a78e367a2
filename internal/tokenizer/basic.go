package tokenizer

import (
	"fmt"
	"strings"
)

// BasicTokenizer splits on whitespace and punctuation and looks words up in
// an explicit vocabulary. It exists for tests, offline demos and the
// random-weights CLI path where no trained tokenizer is available.
type BasicTokenizer struct {
	specialTokens

	vocab        map[string]int32
	reverseVocab map[int32]string
	capacity     int  // fixed vocab size reported in dynamic mode
	dynamic      bool // assign fresh IDs to unseen words
}

// NewBasicTokenizer creates a basic tokenizer over a fixed vocabulary.
// Special token IDs are picked up from the conventional
// <pad>/<unk>/<bos>/<eos> entries when present.
func NewBasicTokenizer(vocab map[string]int32) *BasicTokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	for token, id := range vocab {
		reverseVocab[id] = token
	}

	b := &BasicTokenizer{
		specialTokens: newSpecialTokens(),
		vocab:         vocab,
		reverseVocab:  reverseVocab,
	}

	if id, ok := vocab["<bos>"]; ok {
		b.bos = id
		b.special[id] = true
	}
	if id, ok := vocab["<eos>"]; ok {
		b.eos = id
		b.special[id] = true
	}
	if id, ok := vocab["<pad>"]; ok {
		b.pad = id
		b.special[id] = true
	}
	if id, ok := vocab["<unk>"]; ok {
		b.unk = id
		b.special[id] = true
	}

	return b
}

// NewDynamicTokenizer creates a basic tokenizer that assigns fresh IDs to
// words as it first sees them, up to capacity. IDs 0-3 are reserved for
// <pad>/<unk>/<bos>/<eos>; once the vocabulary is full, new words map to
// <unk>. VocabSize always reports the capacity so an embedding table sized
// from it stays valid as the vocabulary grows.
func NewDynamicTokenizer(capacity int) (*BasicTokenizer, error) {
	if capacity < 5 {
		return nil, fmt.Errorf("dynamic vocab capacity %d leaves no room past the 4 reserved tokens", capacity)
	}

	b := NewBasicTokenizer(map[string]int32{
		"<pad>": 0,
		"<unk>": 1,
		"<bos>": 2,
		"<eos>": 3,
	})
	b.capacity = capacity
	b.dynamic = true

	return b, nil
}

// Encode converts text to token IDs, splitting on whitespace and
// punctuation. Unknown words map to <unk>, or in dynamic mode get the next
// free ID.
func (b *BasicTokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	var tokens []int32
	for _, word := range splitWords(text, false) {
		id, ok := b.vocab[word]
		if !ok && b.dynamic && len(b.vocab) < b.capacity {
			id = int32(len(b.vocab)) //nolint:gosec // G115: capped by capacity
			b.vocab[word] = id
			b.reverseVocab[id] = word
			ok = true
		}
		if !ok {
			if b.unk < 0 {
				return nil, fmt.Errorf("word %q not in vocabulary and no <unk> token", word)
			}
			id = b.unk
		}
		tokens = append(tokens, id)
	}

	return tokens, nil
}

// Decode converts token IDs back to space-separated text.
func (b *BasicTokenizer) Decode(tokens []int32) (string, error) {
	pieces, err := b.DecodeTokens(tokens)
	if err != nil {
		return "", err
	}
	return strings.Join(pieces, " "), nil
}

// DecodeTokens returns each token's vocabulary entry.
func (b *BasicTokenizer) DecodeTokens(tokens []int32) ([]string, error) {
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

// VocabSize returns the capacity in dynamic mode, else the vocabulary size.
func (b *BasicTokenizer) VocabSize() int {
	if b.dynamic {
		return b.capacity
	}
	return len(b.vocab)
}
