package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenizerJSON(t *testing.T, dir string, config map[string]interface{}) string {
	t.Helper()

	data, err := json.Marshal(config)
	require.NoError(t, err)

	path := filepath.Join(dir, "tokenizer.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDetectHFTokenizerType(t *testing.T) {
	tokenizerPath := writeTokenizerJSON(t, t.TempDir(), map[string]interface{}{
		"model": map[string]interface{}{
			"type": "BPE",
			"vocab": map[string]int{
				"a": 0,
				"b": 1,
			},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 2, "content": "<s>", "special": true},
			{"id": 3, "content": "</s>", "special": true},
		},
	})

	metadata, err := DetectHFTokenizerType(tokenizerPath)
	require.NoError(t, err)
	assert.Equal(t, HFTypeBPE, metadata.Type)
	assert.Equal(t, "BPE", metadata.TokenizerType)
	assert.Equal(t, 2, metadata.VocabSize)
	assert.True(t, metadata.HasBOS)
	assert.True(t, metadata.HasEOS)
}

func TestDetectHFTokenizerType_WordPiece(t *testing.T) {
	tokenizerPath := writeTokenizerJSON(t, t.TempDir(), map[string]interface{}{
		"model": map[string]interface{}{
			"type": "WordPiece",
			"vocab": map[string]int{
				"[CLS]": 0,
				"[SEP]": 1,
			},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 0, "content": "[CLS]", "special": true},
			{"id": 1, "content": "[SEP]", "special": true},
		},
	})

	metadata, err := DetectHFTokenizerType(tokenizerPath)
	require.NoError(t, err)
	assert.Equal(t, HFTypeWordPiece, metadata.Type)
	assert.True(t, metadata.HasBOS)
	assert.True(t, metadata.HasEOS)
}

func TestDetectHFTokenizerType_Unigram(t *testing.T) {
	// Unigram vocabularies are [piece, score] lists, not objects.
	tokenizerPath := writeTokenizerJSON(t, t.TempDir(), map[string]interface{}{
		"model": map[string]interface{}{
			"type": "Unigram",
			"vocab": []interface{}{
				[]interface{}{"<unk>", 0.0},
				[]interface{}{"▁the", -3.2},
			},
		},
	})

	metadata, err := DetectHFTokenizerType(tokenizerPath)
	require.NoError(t, err)
	assert.Equal(t, HFTypeUnigram, metadata.Type)
	assert.Equal(t, 2, metadata.VocabSize)
}

func TestDetectHFTokenizerType_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	tokenizerPath := filepath.Join(tmpDir, "tokenizer.json")

	err := os.WriteFile(tokenizerPath, []byte("invalid json"), 0o600)
	require.NoError(t, err)

	_, err = DetectHFTokenizerType(tokenizerPath)
	assert.Error(t, err)
}

func TestDetectHFTokenizerType_FileNotFound(t *testing.T) {
	_, err := DetectHFTokenizerType("/nonexistent/path/tokenizer.json")
	assert.Error(t, err)
}

func TestTryLoadTikToken(t *testing.T) {
	tests := []struct {
		name      string
		modelName string
		wantErr   bool
	}{
		{
			name:      "gpt-4",
			modelName: "gpt-4",
			wantErr:   false,
		},
		{
			name:      "gpt-3.5-turbo",
			modelName: "gpt-3.5-turbo",
			wantErr:   false,
		},
		{
			name:      "unknown model",
			modelName: "unknown-model-xyz",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := TryLoadTikToken(tt.modelName)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, tok)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, tok)
		})
	}
}

func TestAutoLoadTokenizer_TikToken(t *testing.T) {
	// Test auto-loading tiktoken by encoding name.
	tok, err := AutoLoadTokenizer("cl100k_base")
	require.NoError(t, err)
	require.NotNil(t, tok)

	// Verify it works.
	tokens, err := tok.Encode("test")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)
}

func TestAutoLoadTokenizer_ModelName(t *testing.T) {
	// Test auto-loading tiktoken by model name.
	tok, err := AutoLoadTokenizer("gpt-4")
	require.NoError(t, err)
	require.NotNil(t, tok)

	tokens, err := tok.Encode("test")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)
}

func TestAutoLoadTokenizer_HuggingFace(t *testing.T) {
	tmpDir := t.TempDir()
	writeTokenizerJSON(t, tmpDir, map[string]interface{}{
		"model": map[string]interface{}{
			"type": "BPE",
			"vocab": map[string]int{
				"a": 0,
				"b": 1,
				"c": 2,
			},
			"merges": []string{
				"a b",
			},
		},
		"added_tokens": []map[string]interface{}{},
	})

	// Auto-load should find the tokenizer.json.
	tok, err := AutoLoadTokenizer(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, 3, tok.VocabSize())
}

func TestAutoLoadTokenizer_Invalid(t *testing.T) {
	_, err := AutoLoadTokenizer("/nonexistent/path/xyz")
	assert.Error(t, err)
}

func TestLoadFromHuggingFace_BPE(t *testing.T) {
	tmpDir := t.TempDir()
	writeTokenizerJSON(t, tmpDir, map[string]interface{}{
		"model": map[string]interface{}{
			"type": "BPE",
			"vocab": map[string]int{
				"hello": 0,
				"world": 1,
			},
			"merges": []string{},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 100, "content": "<bos>", "special": true},
			{"id": 101, "content": "<eos>", "special": true},
		},
	})

	tok, err := LoadFromHuggingFace(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, 2, tok.VocabSize())
	assert.Equal(t, int32(100), tok.BosToken())
	assert.Equal(t, int32(101), tok.EosToken())
}

func TestLoadFromHuggingFace_BPEByteLevel(t *testing.T) {
	tmpDir := t.TempDir()
	// Newer tokenizer.json files store merges as arrays.
	writeTokenizerJSON(t, tmpDir, map[string]interface{}{
		"model": map[string]interface{}{
			"type": "BPE",
			"vocab": map[string]int{
				"a":  0,
				"b":  1,
				"ab": 2,
			},
			"merges": []interface{}{
				[]interface{}{"a", "b"},
			},
		},
		"pre_tokenizer": map[string]interface{}{
			"type": "ByteLevel",
		},
	})

	tok, err := LoadFromHuggingFace(tmpDir)
	require.NoError(t, err)

	bpe, ok := tok.(*BPETokenizer)
	require.True(t, ok)
	assert.True(t, bpe.byteLevel)
	assert.Equal(t, 0, bpe.getMergeRank(pair{"a", "b"}))
}

func TestLoadFromHuggingFace_WordPiece(t *testing.T) {
	tmpDir := t.TempDir()
	writeTokenizerJSON(t, tmpDir, map[string]interface{}{
		"model": map[string]interface{}{
			"type": "WordPiece",
			"vocab": map[string]int{
				"[PAD]":  0,
				"[UNK]":  1,
				"[CLS]":  2,
				"[SEP]":  3,
				"run":    4,
				"##ning": 5,
			},
			"continuing_subword_prefix": "##",
		},
		"normalizer": map[string]interface{}{
			"type":      "BertNormalizer",
			"lowercase": true,
		},
	})

	tok, err := LoadFromHuggingFace(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 6, tok.VocabSize())
	assert.Equal(t, int32(2), tok.BosToken())
	assert.Equal(t, int32(3), tok.EosToken())

	tokens, err := tok.Encode("Running")
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5}, tokens)
}

func TestLoadFromHuggingFace_Unigram(t *testing.T) {
	tmpDir := t.TempDir()
	writeTokenizerJSON(t, tmpDir, map[string]interface{}{
		"model": map[string]interface{}{
			"type":   "Unigram",
			"unk_id": 0,
			"vocab": []interface{}{
				[]interface{}{"<unk>", 0.0},
				[]interface{}{"▁", -10.0},
				[]interface{}{"h", -5.0},
				[]interface{}{"i", -5.0},
				[]interface{}{"▁h", -4.0},
				[]interface{}{"▁hi", -1.0},
			},
		},
	})

	tok, err := LoadFromHuggingFace(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 6, tok.VocabSize())

	tokens, err := tok.Encode("hi")
	require.NoError(t, err)
	assert.Equal(t, []int32{5}, tokens)
}

func TestLoadFromHuggingFace_VocabTxt(t *testing.T) {
	// BERT checkpoints frequently ship only a vocab.txt.
	tmpDir := t.TempDir()
	lines := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nhello\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "vocab.txt"), []byte(lines), 0o600))

	tok, err := LoadFromHuggingFace(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 5, tok.VocabSize())
	tokens, err := tok.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, []int32{4}, tokens)
}

func TestLoadFromHuggingFace_DirectFile(t *testing.T) {
	tokenizerPath := writeTokenizerJSON(t, t.TempDir(), map[string]interface{}{
		"model": map[string]interface{}{
			"type":   "BPE",
			"vocab":  map[string]int{"x": 0},
			"merges": []string{},
		},
	})

	tok, err := LoadFromHuggingFace(tokenizerPath)
	require.NoError(t, err)
	assert.Equal(t, 1, tok.VocabSize())
}

func TestLoadFromHuggingFace_EmptyDir(t *testing.T) {
	_, err := LoadFromHuggingFace(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tokenizer.json or vocab.txt")
}

func TestHFTokenizerType_Constants(t *testing.T) {
	assert.Equal(t, HFTokenizerType("BPE"), HFTypeBPE)
	assert.Equal(t, HFTokenizerType("WordPiece"), HFTypeWordPiece)
	assert.Equal(t, HFTokenizerType("Unigram"), HFTypeUnigram)
	assert.Equal(t, HFTokenizerType("Unknown"), HFTypeUnknown)
}
