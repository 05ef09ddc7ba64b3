// Package seqio reads and writes sequence files.
//
// Supported input formats are FASTA, FASTQ, GenBank, EMBL, NEXUS and a two
// column tab format. The format is normally inferred from the file extension
// by DetectFormat, which looks through a trailing .gz, .bz2 or .zst suffix.
// Open decompresses these suffixes transparently (gzip in parallel via pgzip).
//
// Parsers only keep what the store needs: an identifier and the residues.
// Annotations, features and quality values are discarded.
//
// Output is supported for FASTA (wrapped at 60 residues), FASTQ (constant
// quality) and tab; the other formats return ErrUnsupportedWrite.
package seqio
