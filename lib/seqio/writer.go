package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// FASTALineWidth is the number of residues per line in FASTA output.
const FASTALineWidth = 60

// Writer serialises records. Flush must be called after the last record.
type Writer interface {
	Write(rec Record) error
	Flush() error
}

// NewWriter returns a writer for format f. Formats that can only be read
// fail with ErrUnsupportedWrite.
func NewWriter(w io.Writer, f Format) (Writer, error) {
	bw := bufio.NewWriter(w)
	switch f {
	case FormatFASTA:
		return &fastaWriter{w: bw}, nil
	case FormatFASTQ:
		return &fastqWriter{w: bw}, nil
	case FormatTab:
		return &tabWriter{w: bw}, nil
	case FormatGenBank, FormatEMBL, FormatNexus:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWrite, f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

type fastaWriter struct {
	w *bufio.Writer
}

func (f *fastaWriter) Write(rec Record) error {
	f.w.WriteByte('>')
	f.w.WriteString(rec.ID)
	f.w.WriteByte('\n')
	for start := 0; start < len(rec.Seq); start += FASTALineWidth {
		end := min(start+FASTALineWidth, len(rec.Seq))
		f.w.Write(rec.Seq[start:end])
		if err := f.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func (f *fastaWriter) Flush() error { return f.w.Flush() }

// fastqWriter writes a constant quality of 'I' (Phred 40), since the store keeps no qualities.
type fastqWriter struct {
	w *bufio.Writer
}

func (f *fastqWriter) Write(rec Record) error {
	f.w.WriteByte('@')
	f.w.WriteString(rec.ID)
	f.w.WriteByte('\n')
	f.w.Write(rec.Seq)
	f.w.WriteString("\n+\n")
	f.w.Write(bytes.Repeat([]byte{'I'}, len(rec.Seq)))
	return f.w.WriteByte('\n')
}

func (f *fastqWriter) Flush() error { return f.w.Flush() }

type tabWriter struct {
	w *bufio.Writer
}

func (t *tabWriter) Write(rec Record) error {
	t.w.WriteString(rec.ID)
	t.w.WriteByte('\t')
	t.w.Write(rec.Seq)
	return t.w.WriteByte('\n')
}

func (t *tabWriter) Flush() error { return t.w.Flush() }
