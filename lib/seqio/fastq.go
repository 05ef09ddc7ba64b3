package seqio

import (
	"bytes"
	"io"
)

type fastqReader struct {
	lines *lineReader
}

func (f *fastqReader) Read() (Record, error) {
	var header []byte
	for {
		line, err := f.lines.next()
		if err != nil {
			return Record{}, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if line[0] != '@' {
			return Record{}, f.lines.errorf("fastq record must start with '@'")
		}
		header = line[1:]
		break
	}

	rec := Record{ID: firstField(header), Seq: []byte{}}

	// sequence lines until the '+' separator
	for {
		line, err := f.lines.next()
		if err == io.EOF {
			return Record{}, f.lines.errorf("fastq record %s ends before the '+' line", rec.ID)
		}
		if err != nil {
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '+' {
			break
		}
		rec.Seq = append(rec.Seq, bytes.TrimSpace(line)...)
	}

	// quality lines until they cover the sequence, the values are not kept
	quality := 0
	for quality < len(rec.Seq) {
		line, err := f.lines.next()
		if err == io.EOF {
			return Record{}, f.lines.errorf("fastq record %s has a truncated quality string", rec.ID)
		}
		if err != nil {
			return Record{}, err
		}
		quality += len(bytes.TrimSpace(line))
	}
	if quality != len(rec.Seq) {
		return Record{}, f.lines.errorf("fastq record %s: quality length %d != sequence length %d", rec.ID, quality, len(rec.Seq))
	}
	return rec, nil
}
