package tokenizer

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations (BPE, WordPiece, tiktoken, etc.) must
// implement this interface.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// DecodeTokens returns each token as the vocabulary spells it,
	// markers included ("##ing", "▁the"). Heatmap axis labels and the
	// CLI token listings are built from these pieces.
	DecodeTokens(tokens []int32) ([]string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// BosToken returns the beginning-of-sequence token ID.
	// Returns -1 if not applicable.
	BosToken() int32

	// EosToken returns the end-of-sequence token ID.
	// Returns -1 if not applicable.
	EosToken() int32

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown token ID.
	// Returns -1 if not applicable.
	UnkToken() int32

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(token int32) bool
}

var (
	_ Tokenizer = (*BPETokenizer)(nil)
	_ Tokenizer = (*WordPieceTokenizer)(nil)
	_ Tokenizer = (*UnigramTokenizer)(nil)
	_ Tokenizer = (*BasicTokenizer)(nil)
	_ Tokenizer = (*TikToken)(nil)
)

// AddSpecialTokens surrounds ids with the tokenizer's BOS and EOS tokens
// where defined. BERT-style vocabularies get their [CLS] ... [SEP] frame
// this way.
func AddSpecialTokens(tok Tokenizer, ids []int32) []int32 {
	out := make([]int32, 0, len(ids)+2)
	if bos := tok.BosToken(); bos >= 0 {
		out = append(out, bos)
	}
	out = append(out, ids...)
	if eos := tok.EosToken(); eos >= 0 {
		out = append(out, eos)
	}
	return out
}

// specialTokens is the bos/eos/pad/unk bookkeeping every vocabulary-backed
// implementation shares by embedding.
type specialTokens struct {
	bos, eos, pad, unk int32
	special            map[int32]bool
}

func newSpecialTokens() specialTokens {
	return specialTokens{
		bos:     -1,
		eos:     -1,
		pad:     -1,
		unk:     -1,
		special: make(map[int32]bool),
	}
}

func (s *specialTokens) set(bos, eos, pad, unk int32) {
	s.bos = bos
	s.eos = eos
	s.pad = pad
	s.unk = unk

	for _, id := range [...]int32{bos, eos, pad, unk} {
		if id >= 0 {
			s.special[id] = true
		}
	}
}

// BosToken returns the beginning-of-sequence token ID, -1 if unset.
func (s *specialTokens) BosToken() int32 {
	return s.bos
}

// EosToken returns the end-of-sequence token ID, -1 if unset.
func (s *specialTokens) EosToken() int32 {
	return s.eos
}

// PadToken returns the padding token ID, -1 if unset.
func (s *specialTokens) PadToken() int32 {
	return s.pad
}

// UnkToken returns the unknown token ID, -1 if unset.
func (s *specialTokens) UnkToken() int32 {
	return s.unk
}

// IsSpecialToken checks if a token ID is a special token.
func (s *specialTokens) IsSpecialToken(token int32) bool {
	return s.special[token]
}
