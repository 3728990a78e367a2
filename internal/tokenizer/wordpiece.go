package tokenizer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// maxWordPieceChars caps per-word matching work; longer words become [UNK].
// Same limit as BERT's reference implementation.
const maxWordPieceChars = 100

// WordPieceTokenizer implements the BERT-family subword algorithm: greedy
// longest-match-first against the vocabulary, with continuation pieces
// marked by a "##" prefix.
type WordPieceTokenizer struct {
	specialTokens

	vocab        map[string]int32 // token -> ID
	reverseVocab map[int32]string // ID -> token
	prefix       string           // continuation marker, "##" for BERT
	lowercase    bool
}

// NewWordPieceTokenizer creates a WordPiece tokenizer over a fixed
// vocabulary. Defaults follow bert-base-uncased: "##" continuation prefix
// and lowercased input. Special token IDs are picked up from the
// conventional [PAD]/[UNK]/[CLS]/[SEP] vocabulary entries when present,
// with [CLS] and [SEP] serving as BOS and EOS.
func NewWordPieceTokenizer(vocab map[string]int32) *WordPieceTokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	for token, id := range vocab {
		reverseVocab[id] = token
	}

	w := &WordPieceTokenizer{
		specialTokens: newSpecialTokens(),
		vocab:         vocab,
		reverseVocab:  reverseVocab,
		prefix:        "##",
		lowercase:     true,
	}

	if id, ok := vocab["[CLS]"]; ok {
		w.bos = id
		w.special[id] = true
	}
	if id, ok := vocab["[SEP]"]; ok {
		w.eos = id
		w.special[id] = true
	}
	if id, ok := vocab["[PAD]"]; ok {
		w.pad = id
		w.special[id] = true
	}
	if id, ok := vocab["[UNK]"]; ok {
		w.unk = id
		w.special[id] = true
	}
	if id, ok := vocab["[MASK]"]; ok {
		w.special[id] = true
	}

	return w
}

// SetLowercase toggles input lowercasing (off for cased vocabularies).
func (w *WordPieceTokenizer) SetLowercase(on bool) {
	w.lowercase = on
}

// Encode splits text into words and punctuation, then greedily matches the
// longest vocabulary piece from each position. A word with no match at some
// position becomes [UNK] as a whole.
func (w *WordPieceTokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	var tokens []int32
	for _, word := range splitWords(text, w.lowercase) {
		ids, err := w.encodeWord(word)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, ids...)
	}

	return tokens, nil
}

func (w *WordPieceTokenizer) encodeWord(word string) ([]int32, error) {
	chars := []rune(word)
	if len(chars) > maxWordPieceChars {
		return w.unknown(word)
	}

	var pieces []int32
	start := 0
	for start < len(chars) {
		// Longest match first: shrink the candidate until it is in vocab.
		end := len(chars)
		id := int32(-1)
		for end > start {
			piece := string(chars[start:end])
			if start > 0 {
				piece = w.prefix + piece
			}
			if pid, ok := w.vocab[piece]; ok {
				id = pid
				break
			}
			end--
		}
		if id < 0 {
			return w.unknown(word)
		}
		pieces = append(pieces, id)
		start = end
	}

	return pieces, nil
}

func (w *WordPieceTokenizer) unknown(word string) ([]int32, error) {
	if w.unk < 0 {
		return nil, fmt.Errorf("cannot encode %q: vocabulary has no [UNK] token", word)
	}
	return []int32{w.unk}, nil
}

// Decode converts token IDs back to text. Continuation pieces reattach to
// the preceding word; everything else is space-separated.
func (w *WordPieceTokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, token := range tokens {
		piece, ok := w.reverseVocab[token]
		if !ok {
			piece = "�"
		}
		if cont, found := strings.CutPrefix(piece, w.prefix); found {
			sb.WriteString(cont)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(piece)
	}
	return sb.String(), nil
}

// DecodeTokens returns each token as the vocabulary spells it, "##" markers
// included.
func (w *WordPieceTokenizer) DecodeTokens(tokens []int32) ([]string, error) {
	pieces := make([]string, len(tokens))
	for i, token := range tokens {
		piece, ok := w.reverseVocab[token]
		if !ok {
			piece = "�"
		}
		pieces[i] = piece
	}
	return pieces, nil
}

// VocabSize returns the total vocabulary size.
func (w *WordPieceTokenizer) VocabSize() int {
	return len(w.vocab)
}

// splitWords performs BERT-style basic tokenization: lowercase (optionally),
// split on whitespace, and break out each punctuation rune as its own word.
func splitWords(text string, lowercase bool) []string {
	if lowercase {
		text = strings.ToLower(text)
	}

	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isPunct(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return words
}

// isPunct mirrors BERT's _is_punctuation: the ASCII symbol ranges count as
// punctuation even where Unicode disagrees ("$", "+", "~").
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// LoadWordPieceVocab loads a WordPiece tokenizer from a vocab.txt file,
// one token per line, line number = token ID.
func LoadWordPieceVocab(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab file: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int32)
	scanner := bufio.NewScanner(f)
	id := int32(0)
	for scanner.Scan() {
		token := strings.TrimSuffix(scanner.Text(), "\r")
		if token == "" {
			continue
		}
		vocab[token] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab file: %w", err)
	}

	return NewWordPieceTokenizer(vocab), nil
}

// LoadWordPieceFromHuggingFace loads a WordPiece tokenizer from a
// HuggingFace tokenizer.json file.
func LoadWordPieceFromHuggingFace(path string) (*WordPieceTokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config HuggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	vocab := make(map[string]int32, len(config.Model.Vocab))
	for token, id := range config.Model.Vocab {
		vocab[token] = int32(id) //nolint:gosec // G115: integer overflow conversion int -> int32
	}

	tokenizer := NewWordPieceTokenizer(vocab)
	if config.Model.ContinuingSubwordPrefix != "" {
		tokenizer.prefix = config.Model.ContinuingSubwordPrefix
	}
	if config.Normalizer.Lowercase != nil {
		tokenizer.lowercase = *config.Normalizer.Lowercase
	}
	applyAddedTokens(&tokenizer.specialTokens, config.AddedTokens)

	return tokenizer, nil
}
