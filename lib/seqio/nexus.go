package seqio

import (
	"bytes"
	"io"
	"strings"
)

// nexusReader parses the MATRIX command of a NEXUS file. The matrix is read
// completely on the first call, since interleaved matrices continue a taxon's
// sequence in later blocks.
type nexusReader struct {
	lines   *lineReader
	records []Record
	parsed  bool
}

func (n *nexusReader) Read() (Record, error) {
	if !n.parsed {
		n.parsed = true
		if err := n.parse(); err != nil {
			return Record{}, err
		}
	}
	if len(n.records) == 0 {
		return Record{}, io.EOF
	}
	rec := n.records[0]
	n.records = n.records[1:]
	return rec, nil
}

func (n *nexusReader) parse() error {
	// find the matrix
	for {
		line, err := n.lines.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(string(line)), "matrix") {
			break
		}
	}

	index := make(map[string]int)
	for {
		line, err := n.lines.next()
		if err == io.EOF {
			return n.lines.errorf("nexus matrix is not terminated by ';'")
		}
		if err != nil {
			return err
		}
		line = stripNexusComment(line)
		done := false
		if i := bytes.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
			done = true
		}

		name, rest := nexusName(bytes.TrimSpace(line))
		if name != "" {
			i, ok := index[name]
			if !ok {
				i = len(n.records)
				index[name] = i
				n.records = append(n.records, Record{ID: name, Seq: []byte{}})
			}
			n.records[i].Seq = appendResidues(n.records[i].Seq, rest)
		}
		if done {
			return nil
		}
	}
}

// nexusName splits a matrix row into the taxon name (optionally single-quoted) and the rest.
func nexusName(line []byte) (string, []byte) {
	if len(line) == 0 {
		return "", nil
	}
	if line[0] == '\'' {
		if end := bytes.IndexByte(line[1:], '\''); end >= 0 {
			return string(line[1 : end+1]), line[end+2:]
		}
	}
	i := bytes.IndexAny(line, " \t")
	if i < 0 {
		return string(line), nil
	}
	return string(line[:i]), line[i:]
}

// stripNexusComment removes [bracketed] comments on a single line.
func stripNexusComment(line []byte) []byte {
	if bytes.IndexByte(line, '[') < 0 {
		return line
	}
	out := make([]byte, 0, len(line))
	depth := 0
	for _, c := range line {
		switch {
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case depth == 0:
			out = append(out, c)
		}
	}
	return out
}
