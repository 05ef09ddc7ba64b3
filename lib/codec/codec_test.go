package codec

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		dropUnmapped bool
		want         []byte
	}{
		{"alphabet", "ACGTN", true, []byte{1, 2, 3, 4, 0}},
		{"lower case", "acgtn", true, []byte{1, 2, 3, 4, 0}},
		{"drop unknown", "ACGTNJIKLO", true, []byte{1, 2, 3, 4, 0}},
		{"keep unknown", "ACGTNJIKLO", false, []byte{1, 2, 3, 4, 0, 0, 0, 0, 0, 0}},
		{"empty", "", true, []byte{}},
		{"only unknown dropped", "-*?", true, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode([]byte(tt.in), tt.dropUnmapped)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			gotString := EncodeString(tt.in, tt.dropUnmapped)
			if !bytes.Equal(gotString, tt.want) {
				t.Errorf("EncodeString: expected %v, got %v", tt.want, gotString)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	if got := Decode([]byte{1, 2, 3, 4, 0}); got != "ACGTN" {
		t.Errorf("Expected ACGTN, got %s", got)
	}
	if got := Decode(EncodeString("ACJIKLOGT", true)); got != "ACGT" {
		t.Errorf("Expected ACGT, got %s", got)
	}
	if got := Decode([]byte{9, 255, 1}); got != "NNA" {
		t.Errorf("Expected out-of-range values to decode to N, got %s", got)
	}
}

func TestEncodeDoesNotModifyInput(t *testing.T) {
	in := []byte("acgtXn")
	_ = Encode(in, true)
	if string(in) != "acgtXn" {
		t.Errorf("Encode modified its input: %s", in)
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const letters = "ACGTNacgtn"

	for i := 0; i < 200; i++ {
		n := r.Intn(500)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteByte(letters[r.Intn(len(letters))])
		}
		s := sb.String()

		if got := Decode(EncodeString(s, true)); got != strings.ToUpper(s) {
			t.Fatalf("Round trip failed for %q: got %q", s, got)
		}
	}
}

func TestLengthProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const letters = "ACGTNacgtnXYZ-.*"

	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(300)
		seq := make([]byte, n)
		for j := range seq {
			seq[j] = letters[r.Intn(len(letters))]
		}
		// guarantee at least one unmapped character
		seq[r.Intn(n)] = 'X'

		if got := len(Encode(seq, true)); got >= len(seq) {
			t.Fatalf("Expected dropped encoding to be shorter than %d, got %d", len(seq), got)
		}
		if got := len(Encode(seq, false)); got != len(seq) {
			t.Fatalf("Expected kept encoding to have length %d, got %d", len(seq), got)
		}
	}
}

func TestValid(t *testing.T) {
	for _, c := range []byte("ACGTNacgtn") {
		if !Valid(c) {
			t.Errorf("Expected %q to be valid", c)
		}
	}
	for _, c := range []byte("XUuRY- \n") {
		if Valid(c) {
			t.Errorf("Expected %q to be invalid", c)
		}
	}
}
