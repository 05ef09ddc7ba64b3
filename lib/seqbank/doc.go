// Package seqbank stores nucleotide sequences by accession in an ordered
// key-value store and fills it from sequence files and URLs.
//
// Sequences are kept in the dense encoding of package codec, one byte per
// residue. Besides the sequence entries, a bank holds bookkeeping entries under
// a reserved key prefix (see package keys) which record the URLs that were
// ingested completely, so that repeated ingestion runs skip them.
//
// Ingestion:
//
//	AddFile streams the records of one file into the bank, optionally
//	restricted by an accession filter. AddURL downloads a file into a
//	temporary directory first and marks the URL as seen once every record is
//	written. AddFiles and AddURLs run many of these on a bounded worker pool;
//	one failing item never stops the rest of the batch.
//
// Reading:
//
//	Numeric, String and Record return a single sequence, Items and Export walk
//	the bank in ascending accession order, and LengthReport summarizes the
//	length distribution.
//
// A bank must be closed by its owner. At most one process may have a bank
// open for writing; within that process it may be shared by any number of
// goroutines.
package seqbank
