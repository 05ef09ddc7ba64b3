package codec

// --------------------------------------------------------------------------
// Alphabet and lookup tables
// --------------------------------------------------------------------------

// Alphabet lists the residues that survive encoding, indexed by their encoded value.
// The value 0 stands for 'N' and for any character that was kept by Encode
// with dropUnmapped=false.
const Alphabet = "NACGT"

const (
	ValueN byte = 0
	ValueA byte = 1
	ValueC byte = 2
	ValueG byte = 3
	ValueT byte = 4
)

var (
	// encodeTable maps an ASCII byte to its encoded value (0 for anything unknown)
	encodeTable [256]byte
	// mapped marks the bytes that belong to the alphabet (either case)
	mapped [256]bool
	// decodeTable maps an encoded value back to its upper-case residue
	decodeTable [256]byte
)

func init() {
	for i := range decodeTable {
		decodeTable[i] = 'N'
	}
	for value := 0; value < len(Alphabet); value++ {
		upper := Alphabet[value]
		lower := upper + ('a' - 'A')

		encodeTable[upper] = byte(value)
		encodeTable[lower] = byte(value)
		mapped[upper] = true
		mapped[lower] = true
		decodeTable[value] = upper
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Valid reports whether c is one of A, C, G, T, N in either case.
func Valid(c byte) bool {
	return mapped[c]
}

// Encode converts raw residues into the dense one-byte-per-residue form.
//
//   - dropUnmapped=true: characters outside ACGTNacgtn are removed (len(out) <= len(seq))
//   - dropUnmapped=false: they are encoded as 0 (len(out) == len(seq))
//
// The input is never modified.
func Encode(seq []byte, dropUnmapped bool) []byte {
	out := make([]byte, 0, len(seq))
	for _, c := range seq {
		if dropUnmapped && !mapped[c] {
			continue
		}
		out = append(out, encodeTable[c])
	}
	return out
}

// EncodeString is Encode for string input.
func EncodeString(seq string, dropUnmapped bool) []byte {
	out := make([]byte, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if dropUnmapped && !mapped[c] {
			continue
		}
		out = append(out, encodeTable[c])
	}
	return out
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeBytes converts encoded values back to upper-case residues.
// Values outside 0-4 decode to 'N'.
func DecodeBytes(encoded []byte) []byte {
	out := make([]byte, len(encoded))
	for i, v := range encoded {
		out[i] = decodeTable[v]
	}
	return out
}

// Decode is DecodeBytes returning a string.
func Decode(encoded []byte) string {
	return string(DecodeBytes(encoded))
}
