package tokenizer

// GPT-2's byte-level BPE never sees raw bytes: every byte is mapped to a
// printable stand-in rune first, so merge tables and vocab files can treat
// bytes as ordinary characters. Printable latin-1 bytes map to themselves;
// the rest shift up past U+0100. Space becomes "Ġ", newline "Ċ".

var byteToUnicode = buildByteToUnicode()

var unicodeToByte = buildUnicodeToByte()

func buildByteToUnicode() [256]string {
	printable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
	}

	var table [256]string
	n := 0
	for b := 0; b < 256; b++ {
		if printable(b) {
			table[b] = string(rune(b))
		} else {
			table[b] = string(rune(256 + n))
			n++
		}
	}
	return table
}

func buildUnicodeToByte() map[rune]byte {
	m := make(map[rune]byte, 256)
	for b, s := range byteToUnicode {
		m[[]rune(s)[0]] = byte(b)
	}
	return m
}

// unmapByteLevel converts a byte-level vocabulary piece back to the raw
// bytes it stands for. Runes outside the mapping pass through unchanged.
func unmapByteLevel(piece string) string {
	buf := make([]byte, 0, len(piece))
	for _, r := range piece {
		if b, ok := unicodeToByte[r]; ok {
			buf = append(buf, b)
		} else {
			buf = append(buf, string(r)...)
		}
	}
	return string(buf)
}
