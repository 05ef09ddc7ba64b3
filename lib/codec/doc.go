// Package codec translates nucleotide sequences into the dense byte form stored
// in a seqbank and back.
//
// Every residue occupies one byte: A=1, C=2, G=3, T=4 and N=0. Input is
// case-insensitive. Characters outside the alphabet are either dropped or
// stored as 0, which makes them indistinguishable from 'N' after decoding.
// Decode always yields upper-case text.
//
// Example:
//
//	encoded := codec.EncodeString("acgtn", true) // []byte{1, 2, 3, 4, 0}
//	text := codec.Decode(encoded)               // "ACGTN"
package codec
