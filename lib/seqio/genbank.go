package seqio

import (
	"bytes"
	"io"
)

type genbankReader struct {
	lines *lineReader
}

// Read parses one LOCUS ... // block. The identifier is taken from the VERSION
// line, falling back to ACCESSION and then to the LOCUS name.
func (g *genbankReader) Read() (Record, error) {
	var locus []byte
	for {
		line, err := g.lines.next()
		if err != nil {
			return Record{}, err
		}
		if bytes.HasPrefix(line, []byte("LOCUS")) {
			locus = line[len("LOCUS"):]
			break
		}
	}

	var (
		name, accession, version string
		seq                      = []byte{}
		inOrigin                 bool
	)
	name = firstField(locus)

	for {
		line, err := g.lines.next()
		if err == io.EOF {
			return Record{}, g.lines.errorf("genbank record %s is not terminated by //", name)
		}
		if err != nil {
			return Record{}, err
		}
		if bytes.HasPrefix(line, []byte("//")) {
			break
		}
		switch {
		case inOrigin:
			seq = appendResidues(seq, line)
		case bytes.HasPrefix(line, []byte("ORIGIN")):
			inOrigin = true
		case bytes.HasPrefix(line, []byte("ACCESSION")) && accession == "":
			accession = firstField(line[len("ACCESSION"):])
		case bytes.HasPrefix(line, []byte("VERSION")) && version == "":
			version = firstField(line[len("VERSION"):])
		}
	}

	id := name
	switch {
	case version != "":
		id = version
	case accession != "":
		id = accession
	}
	return Record{ID: id, Seq: seq}, nil
}
