package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unigramTestTokenizer(t *testing.T) *UnigramTokenizer {
	t.Helper()

	pieces := []string{
		"<unk>", "<s>", "</s>",
		"▁", "t", "h", "e", "c", "a",
		"▁t", "th", "he", "at", "ca", "▁c",
		"▁the", "▁cat",
	}
	scores := []float32{
		0, 0, 0,
		-10, -11, -11, -11, -11, -11,
		-3, -5, -4, -4.5, -6, -5.5,
		-1, -1.5,
	}

	tok, err := NewUnigramTokenizer(pieces, scores)
	require.NoError(t, err)
	return tok
}

func TestUnigram_Encode(t *testing.T) {
	tok := unigramTestTokenizer(t)

	tests := []struct {
		name string
		text string
		want []int32
	}{
		{
			// "▁the▁cat" assembles through ▁t, he, ▁the, at, ▁c, ▁cat.
			name: "scored merges",
			text: "the cat",
			want: []int32{15, 16},
		},
		{
			name: "unknown rune",
			text: "z",
			want: []int32{3, 0},
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

func TestUnigram_Decode(t *testing.T) {
	tok := unigramTestTokenizer(t)

	tests := []struct {
		name   string
		tokens []int32
		want   string
	}{
		{
			name:   "markers become spaces",
			tokens: []int32{15, 16},
			want:   "the cat",
		},
		{
			name:   "out of range id",
			tokens: []int32{15, 9999},
			want:   "the�",
		},
		{
			name:   "empty",
			tokens: []int32{},
			want:   "",
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

func TestUnigram_DecodeTokens(t *testing.T) {
	tok := unigramTestTokenizer(t)

	pieces, err := tok.DecodeTokens([]int32{15, 16})
	require.NoError(t, err)
	assert.Equal(t, []string{"▁the", "▁cat"}, pieces)
}

func TestUnigram_RoundTrip(t *testing.T) {
	tok := unigramTestTokenizer(t)

	tokens, err := tok.Encode("the cat")
	require.NoError(t, err)

	text, err := tok.Decode(tokens)
	require.NoError(t, err)
	assert.Equal(t, "the cat", text)
}

func TestUnigram_SpecialTokens(t *testing.T) {
	tok := unigramTestTokenizer(t)

	assert.Equal(t, int32(1), tok.BosToken())
	assert.Equal(t, int32(2), tok.EosToken())
	assert.Equal(t, int32(0), tok.UnkToken())
	assert.Equal(t, int32(-1), tok.PadToken())

	assert.True(t, tok.IsSpecialToken(0))
	assert.True(t, tok.IsSpecialToken(1))
	assert.False(t, tok.IsSpecialToken(15))
}

func TestUnigram_MismatchedScores(t *testing.T) {
	_, err := NewUnigramTokenizer([]string{"a", "b"}, []float32{-1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 pieces but 1 scores")
}

func TestUnigram_VocabSize(t *testing.T) {
	tok := unigramTestTokenizer(t)
	assert.Equal(t, 17, tok.VocabSize())
}

func TestLoadUnigramFromHuggingFace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenizer.json")

	config := `{
		"model": {
			"type": "Unigram",
			"unk_id": 0,
			"vocab": [["<unk>", 0.0], ["▁", -10.0], ["a", -5.0], ["▁a", -1.0]]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	tok, err := LoadUnigramFromHuggingFace(path)
	require.NoError(t, err)

	assert.Equal(t, 4, tok.VocabSize())
	assert.Equal(t, int32(0), tok.UnkToken())

	tokens, err := tok.Encode("a")
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, tokens)
}

func TestLoadUnigramFromHuggingFace_BadVocab(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenizer.json")

	config := `{"model": {"type": "Unigram", "vocab": [["only-piece"]]}}`
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	_, err := LoadUnigramFromHuggingFace(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[piece, score] pair")
}
