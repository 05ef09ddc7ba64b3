package seqio

import (
	"bytes"
)

type tabReader struct {
	lines *lineReader
}

// Read parses one "id<TAB>sequence" line. Blank lines are skipped.
func (t *tabReader) Read() (Record, error) {
	for {
		line, err := t.lines.next()
		if err != nil {
			return Record{}, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		id, seq, ok := bytes.Cut(line, []byte("\t"))
		if !ok {
			return Record{}, t.lines.errorf("tab record needs two tab separated columns")
		}
		return Record{ID: string(bytes.TrimSpace(id)), Seq: append([]byte{}, bytes.TrimSpace(seq)...)}, nil
	}
}
