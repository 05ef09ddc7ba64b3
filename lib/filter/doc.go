// Package filter parses accession allow-lists. A filter can be given inline as
// a List or as a File with one accession per line. Parsing nothing, or an empty
// list, yields a nil Set, which accepts every accession.
package filter
