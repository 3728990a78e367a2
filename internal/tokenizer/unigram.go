package tokenizer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// wsMarker is the visible whitespace marker sentencepiece vocabularies use
// (U+2581 LOWER ONE EIGHTH BLOCK).
const wsMarker = "▁"

// UnigramTokenizer implements sentencepiece-style tokenization. Every piece
// carries a log-probability score; encoding starts from single runes and
// repeatedly merges the adjacent pair whose concatenation is the
// best-scoring vocabulary piece.
type UnigramTokenizer struct {
	specialTokens

	pieces []string  // piece index = token ID
	scores []float32 // log probabilities, parallel to pieces
	ids    map[string]int32
}

// NewUnigramTokenizer creates a unigram tokenizer from parallel piece and
// score slices; the token ID of a piece is its index. Special token IDs are
// picked up from the conventional <s>/</s>/<pad>/<unk> entries when present.
func NewUnigramTokenizer(pieces []string, scores []float32) (*UnigramTokenizer, error) {
	if len(pieces) != len(scores) {
		return nil, fmt.Errorf("unigram vocab has %d pieces but %d scores", len(pieces), len(scores))
	}

	ids := make(map[string]int32, len(pieces))
	for i, piece := range pieces {
		if _, ok := ids[piece]; !ok {
			ids[piece] = int32(i) //nolint:gosec // G115: piece IDs fit in int32
		}
	}

	u := &UnigramTokenizer{
		specialTokens: newSpecialTokens(),
		pieces:        pieces,
		scores:        scores,
		ids:           ids,
	}

	if id, ok := ids["<s>"]; ok {
		u.bos = id
		u.special[id] = true
	}
	if id, ok := ids["</s>"]; ok {
		u.eos = id
		u.special[id] = true
	}
	if id, ok := ids["<pad>"]; ok {
		u.pad = id
		u.special[id] = true
	}
	if id, ok := ids["<unk>"]; ok {
		u.unk = id
		u.special[id] = true
	}

	return u, nil
}

// Encode normalizes whitespace to the ▁ marker, seeds one token per rune,
// then greedily merges the adjacent pair whose merged piece scores highest.
func (u *UnigramTokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	// Sentencepiece prepends a marker so "the" and " the" tokenize alike.
	normalized := wsMarker + strings.ReplaceAll(text, " ", wsMarker)

	var tokens []int32
	for _, r := range normalized {
		if id, ok := u.ids[string(r)]; ok {
			tokens = append(tokens, id)
		} else if u.unk >= 0 {
			tokens = append(tokens, u.unk)
		} else {
			return nil, fmt.Errorf("no vocabulary piece for %q and no <unk> token", r)
		}
	}

	for len(tokens) > 1 {
		bestIdx := -1
		var bestID int32
		bestScore := float32(math.Inf(-1))

		for i := 0; i < len(tokens)-1; i++ {
			merged := u.pieces[tokens[i]] + u.pieces[tokens[i+1]]
			if id, ok := u.ids[merged]; ok && u.scores[id] > bestScore {
				bestIdx = i
				bestID = id
				bestScore = u.scores[id]
			}
		}

		if bestIdx < 0 {
			break
		}
		tokens[bestIdx] = bestID
		tokens = append(tokens[:bestIdx+1], tokens[bestIdx+2:]...)
	}

	return tokens, nil
}

// Decode converts token IDs back to text, turning ▁ markers into spaces.
func (u *UnigramTokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, token := range tokens {
		if int(token) < 0 || int(token) >= len(u.pieces) {
			sb.WriteString("�")
			continue
		}
		sb.WriteString(u.pieces[token])
	}
	text := strings.ReplaceAll(sb.String(), wsMarker, " ")
	return strings.TrimPrefix(text, " "), nil
}

// DecodeTokens returns each token as the vocabulary spells it, ▁ markers
// included.
func (u *UnigramTokenizer) DecodeTokens(tokens []int32) ([]string, error) {
	pieces := make([]string, len(tokens))
	for i, token := range tokens {
		if int(token) < 0 || int(token) >= len(u.pieces) {
			pieces[i] = "�"
			continue
		}
		pieces[i] = u.pieces[token]
	}
	return pieces, nil
}

// VocabSize returns the total vocabulary size.
func (u *UnigramTokenizer) VocabSize() int {
	return len(u.pieces)
}

// LoadUnigramFromHuggingFace loads a unigram tokenizer from a HuggingFace
// tokenizer.json file, where the vocab is a list of [piece, score] entries.
func LoadUnigramFromHuggingFace(path string) (*UnigramTokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config struct {
		Model struct {
			UnkID *int            `json:"unk_id"`
			Vocab [][]interface{} `json:"vocab"`
		} `json:"model"`
		AddedTokens []AddedToken `json:"added_tokens"`
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	pieces := make([]string, 0, len(config.Model.Vocab))
	scores := make([]float32, 0, len(config.Model.Vocab))
	for i, entry := range config.Model.Vocab {
		if len(entry) != 2 {
			return nil, fmt.Errorf("unigram vocab entry %d is not a [piece, score] pair", i)
		}
		piece, ok := entry[0].(string)
		if !ok {
			return nil, fmt.Errorf("unigram vocab entry %d has a non-string piece", i)
		}
		score, ok := entry[1].(float64)
		if !ok {
			return nil, fmt.Errorf("unigram vocab entry %d has a non-numeric score", i)
		}
		pieces = append(pieces, piece)
		scores = append(scores, float32(score))
	}

	tokenizer, err := NewUnigramTokenizer(pieces, scores)
	if err != nil {
		return nil, err
	}
	if config.Model.UnkID != nil {
		id := int32(*config.Model.UnkID) //nolint:gosec // G115: piece IDs fit in int32
		tokenizer.unk = id
		tokenizer.special[id] = true
	}
	applyAddedTokens(&tokenizer.specialTokens, config.AddedTokens)

	return tokenizer, nil
}
