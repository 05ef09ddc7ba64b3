package seqio

import (
	"bytes"
	"io"
	"strings"
)

type emblReader struct {
	lines *lineReader
}

// Read parses one ID ... // block. The identifier is the primary accession
// from the ID line, with the sequence version appended when present ("X56734.1").
func (e *emblReader) Read() (Record, error) {
	var idLine []byte
	for {
		line, err := e.lines.next()
		if err != nil {
			return Record{}, err
		}
		if bytes.HasPrefix(line, []byte("ID ")) {
			idLine = line[2:]
			break
		}
	}

	id := emblID(string(idLine))
	seq := []byte{}
	inSequence := false
	accession := ""

	for {
		line, err := e.lines.next()
		if err == io.EOF {
			return Record{}, e.lines.errorf("embl record %s is not terminated by //", id)
		}
		if err != nil {
			return Record{}, err
		}
		if bytes.HasPrefix(line, []byte("//")) {
			break
		}
		switch {
		case inSequence:
			seq = appendResidues(seq, line)
		case bytes.HasPrefix(line, []byte("SQ")):
			inSequence = true
		case bytes.HasPrefix(line, []byte("AC ")) && accession == "":
			accession = strings.TrimSuffix(firstField(line[2:]), ";")
		}
	}

	if id == "" {
		id = accession
	}
	return Record{ID: id, Seq: seq}, nil
}

// emblID builds "accession.version" from an ID line such as
// "X56734; SV 1; linear; mRNA; STD; PLN; 1859 BP."
func emblID(line string) string {
	parts := strings.Split(line, ";")
	acc := strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		sv := strings.TrimSpace(parts[1])
		if strings.HasPrefix(sv, "SV ") {
			return acc + "." + strings.TrimSpace(strings.TrimPrefix(sv, "SV "))
		}
	}
	// old style ID lines carry the entry name as first token
	return firstField([]byte(acc))
}
