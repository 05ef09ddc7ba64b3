package seqio

import (
	"bytes"
	"io"
)

type fastaReader struct {
	lines *lineReader
}

func (f *fastaReader) Read() (Record, error) {
	// skip anything before the first header
	var header []byte
	for {
		line, err := f.lines.next()
		if err != nil {
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			header = line[1:]
			break
		}
	}

	rec := Record{ID: firstField(header)}
	for {
		line, err := f.lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			f.lines.unread(line)
			break
		}
		rec.Seq = append(rec.Seq, bytes.TrimSpace(line)...)
	}
	if rec.Seq == nil {
		rec.Seq = []byte{}
	}
	return rec, nil
}
