// Package remote knows the layout of the public bulk sources seqbank ingests:
// the NCBI RefSeq complete release and the Dfam family archives.
//
// RefSeq is discovered by scraping the HTML directory listing. Dfam archives
// are read through the ArchiveVisitor interface, so the HDF5 release can be
// plugged in from outside while the EMBL release works out of the box.
package remote
