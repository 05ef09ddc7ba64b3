package seqio

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

const writerBufferSize = 1 << 20

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// Open opens path for reading and transparently decompresses it. The
// compression is chosen by suffix (.gz, .bz2, .zst); files without a suffix
// that start with the gzip magic number are decompressed as gzip as well.
func Open(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(fh, writerBufferSize)

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".bz2"):
		return &multiReadCloser{Reader: bzip2.NewReader(br), closers: []io.Closer{fh}}, nil

	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		return &multiReadCloser{Reader: zr, closers: []io.Closer{zstdCloser{zr}, fh}}, nil
	}

	// Detect gzip by magic number (1F 8B) or by .gz suffix.
	sig, _ := br.Peek(2)
	if strings.HasSuffix(lower, ".gz") || (len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) {
		gr, err := pgzip.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{fh}}, nil
}

// bufferedWriteCloser flushes the buffer and closes every layer in order.
type bufferedWriteCloser struct {
	*bufio.Writer
	closers []io.Closer
}

func (b *bufferedWriteCloser) Close() error {
	err := b.Writer.Flush()
	for _, c := range b.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Create creates path for writing. A .gz suffix compresses the output with
// parallel gzip using workers goroutines (<= 0 means GOMAXPROCS).
func Create(path string, workers int) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &bufferedWriteCloser{Writer: bufio.NewWriterSize(f, writerBufferSize), closers: []io.Closer{f}}, nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pw, err := pgzip.NewWriterLevel(f, pgzip.DefaultCompression)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if err := pw.SetConcurrency(1<<20, workers); err != nil {
		_ = pw.Close()
		_ = f.Close()
		return nil, fmt.Errorf("set gzip concurrency: %w", err)
	}
	return &bufferedWriteCloser{Writer: bufio.NewWriterSize(pw, writerBufferSize), closers: []io.Closer{pw, f}}, nil
}
