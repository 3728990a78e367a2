package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordPieceTestVocab() map[string]int32 {
	return map[string]int32{
		"[PAD]":  0,
		"[UNK]":  1,
		"[CLS]":  2,
		"[SEP]":  3,
		"[MASK]": 4,
		"the":    5,
		"cat":    6,
		"sat":    7,
		"on":     8,
		"mat":    9,
		"un":     10,
		"##aff":  11,
		"##able": 12,
		"##s":    13,
		".":      14,
		",":      15,
		"run":    16,
		"##ning": 17,
	}
}

func TestWordPiece_Encode(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	tests := []struct {
		name string
		text string
		want []int32
	}{
		{
			name: "known words",
			text: "the cat sat",
			want: []int32{5, 6, 7},
		},
		{
			name: "subword split",
			text: "unaffable",
			want: []int32{10, 11, 12},
		},
		{
			name: "continuation piece",
			text: "running",
			want: []int32{16, 17},
		},
		{
			name: "plural",
			text: "cats",
			want: []int32{6, 13},
		},
		{
			name: "unknown word",
			text: "xyz",
			want: []int32{1},
		},
		{
			name: "lowercased input",
			text: "The CAT.",
			want: []int32{5, 6, 14},
		},
		{
			name: "punctuation splits words",
			text: "cat,mat",
			want: []int32{6, 15, 9},
		},
		{
			name: "empty string",
			text: "",
			want: []int32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tok.Encode(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tokens)
		})
	}
}

func TestWordPiece_EncodeCased(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())
	tok.SetLowercase(false)

	// "The" is not in the vocab once lowercasing is off.
	tokens, err := tok.Encode("The cat")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 6}, tokens)
}

func TestWordPiece_LongWord(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	tokens, err := tok.Encode(strings.Repeat("a", maxWordPieceChars+1))
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, tokens)
}

func TestWordPiece_NoUnkToken(t *testing.T) {
	tok := NewWordPieceTokenizer(map[string]int32{"the": 0})

	_, err := tok.Encode("zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no [UNK] token")
}

func TestWordPiece_Decode(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	tests := []struct {
		name   string
		tokens []int32
		want   string
	}{
		{
			name:   "continuations reattach",
			tokens: []int32{5, 6, 13},
			want:   "the cats",
		},
		{
			name:   "special tokens kept",
			tokens: []int32{2, 5, 3},
			want:   "[CLS] the [SEP]",
		},
		{
			name:   "unknown id",
			tokens: []int32{5, 9999},
			want:   "the �",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := tok.Decode(tt.tokens)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestWordPiece_DecodeTokens(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	pieces, err := tok.DecodeTokens([]int32{6, 13})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "##s"}, pieces)
}

func TestWordPiece_SpecialTokens(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	assert.Equal(t, int32(2), tok.BosToken())
	assert.Equal(t, int32(3), tok.EosToken())
	assert.Equal(t, int32(0), tok.PadToken())
	assert.Equal(t, int32(1), tok.UnkToken())

	assert.True(t, tok.IsSpecialToken(4)) // [MASK]
	assert.False(t, tok.IsSpecialToken(5))
}

func TestWordPiece_AddSpecialTokens(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())

	ids, err := tok.Encode("the cat")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 5, 6, 3}, AddSpecialTokens(tok, ids))
}

func TestWordPiece_VocabSize(t *testing.T) {
	tok := NewWordPieceTokenizer(wordPieceTestVocab())
	assert.Equal(t, 18, tok.VocabSize())
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		lowercase bool
		want      []string
	}{
		{
			name:      "apostrophe is punctuation",
			text:      "don't stop",
			lowercase: true,
			want:      []string{"don", "'", "t", "stop"},
		},
		{
			name:      "ascii symbols split",
			text:      "a+b=c",
			lowercase: false,
			want:      []string{"a", "+", "b", "=", "c"},
		},
		{
			name:      "whitespace collapses",
			text:      "a \t b",
			lowercase: false,
			want:      []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitWords(tt.text, tt.lowercase))
		})
	}
}

func TestLoadWordPieceVocab(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.txt")

	lines := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nthe\ncat\n"
	require.NoError(t, os.WriteFile(vocabPath, []byte(lines), 0o600))

	tok, err := LoadWordPieceVocab(vocabPath)
	require.NoError(t, err)

	assert.Equal(t, 6, tok.VocabSize())
	assert.Equal(t, int32(2), tok.BosToken())
	assert.Equal(t, int32(3), tok.EosToken())

	tokens, err := tok.Encode("the cat")
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5}, tokens)
}

func TestLoadWordPieceVocab_MissingFile(t *testing.T) {
	_, err := LoadWordPieceVocab(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
