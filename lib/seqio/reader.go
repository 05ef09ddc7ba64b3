package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Record is a parsed sequence: an identifier and its residues as read from the file.
type Record struct {
	ID  string
	Seq []byte
}

// Reader yields the records of a stream one at a time. Read returns io.EOF
// after the last record.
type Reader interface {
	Read() (Record, error)
}

// NewReader returns a parser for format f reading from r.
func NewReader(r io.Reader, f Format) (Reader, error) {
	lr := newLineReader(r)
	switch f {
	case FormatFASTA:
		return &fastaReader{lines: lr}, nil
	case FormatFASTQ:
		return &fastqReader{lines: lr}, nil
	case FormatGenBank:
		return &genbankReader{lines: lr}, nil
	case FormatEMBL:
		return &emblReader{lines: lr}, nil
	case FormatNexus:
		return &nexusReader{lines: lr}, nil
	case FormatTab:
		return &tabReader{lines: lr}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Each calls fn for every record of r until the stream ends or fn fails.
func Each(r Reader, fn func(Record) error) error {
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// ReadFile opens path (decompressing it if needed), parses it as format f
// and calls fn for every record.
func ReadFile(path string, f Format, fn func(Record) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	r, err := NewReader(rc, f)
	if err != nil {
		return err
	}
	if err := Each(r, fn); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Count returns the number of records in path.
func Count(path string, f Format) (int, error) {
	n := 0
	err := ReadFile(path, f, func(Record) error {
		n++
		return nil
	})
	return n, err
}

// --------------------------------------------------------------------------
// Line reading
// --------------------------------------------------------------------------

// lineReader reads lines of arbitrary length and supports pushing one line back.
type lineReader struct {
	r       *bufio.Reader
	pending []byte
	hasPend bool
	lineNo  int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next line without its line terminator. The returned slice
// is only valid until the next call.
func (l *lineReader) next() ([]byte, error) {
	if l.hasPend {
		l.hasPend = false
		return l.pending, nil
	}
	line, err := l.r.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	l.lineNo++
	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}

// unread pushes line back, so the next call to next returns it again.
func (l *lineReader) unread(line []byte) {
	l.pending = line
	l.hasPend = true
}

func (l *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", l.lineNo, fmt.Sprintf(format, args...))
}

// appendResidues appends all letters of line to seq, skipping whitespace,
// digits and other separators used by the flat-file formats.
func appendResidues(seq, line []byte) []byte {
	for _, c := range line {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '*' || c == '-' {
			seq = append(seq, c)
		}
	}
	return seq
}

// firstField returns the first whitespace separated token of s.
func firstField(s []byte) string {
	fields := bytes.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return string(fields[0])
}
