package seqbank

import (
	"github.com/ValentinKolb/seqbank/lib/codec"
	"github.com/ValentinKolb/seqbank/lib/seqio"
)

// SequenceInput is a sequence in one of the accepted representations:
// RawString, RawBytes, Record or Encoded. Every variant is reduced to the
// encoded form (one byte per residue, see package codec) before it is stored.
type SequenceInput interface {
	canonical() []byte
}

// RawString is sequence text such as "ACGTN". Characters outside ACGTN are dropped.
type RawString string

// RawBytes is sequence text as bytes. Characters outside ACGTN are dropped.
type RawBytes []byte

// Record is a parsed record; only its sequence is used.
type Record seqio.Record

// Encoded is an already encoded sequence. It is stored unchanged.
type Encoded []byte

func (s RawString) canonical() []byte { return codec.EncodeString(string(s), true) }
func (b RawBytes) canonical() []byte  { return codec.Encode(b, true) }
func (r Record) canonical() []byte    { return codec.Encode(r.Seq, true) }
func (e Encoded) canonical() []byte   { return append([]byte{}, e...) }
