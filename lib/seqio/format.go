package seqio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format names a sequence file format.
type Format string

const (
	FormatFASTA   Format = "fasta"
	FormatFASTQ   Format = "fastq"
	FormatGenBank Format = "genbank"
	FormatEMBL    Format = "embl"
	FormatNexus   Format = "nexus"
	FormatTab     Format = "tab"
)

var (
	// ErrUnknownFormat is returned when a format can not be inferred from a file name
	// or a format name is not recognised.
	ErrUnknownFormat = errors.New("seqio: unknown file format")
	// ErrUnsupportedWrite is returned when a format can be read but not written.
	ErrUnsupportedWrite = errors.New("seqio: format can not be written")
)

// extensions maps lower-case file extensions (without dot) to formats
var extensions = map[string]Format{
	"fa":      FormatFASTA,
	"fna":     FormatFASTA,
	"fasta":   FormatFASTA,
	"fastq":   FormatFASTQ,
	"fq":      FormatFASTQ,
	"genbank": FormatGenBank,
	"gb":      FormatGenBank,
	"gbk":     FormatGenBank,
	"embl":    FormatEMBL,
	"nexus":   FormatNexus,
	"nxs":     FormatNexus,
	"tab":     FormatTab,
	"tsv":     FormatTab,
}

// compressionSuffixes are stripped before the format extension is inspected
var compressionSuffixes = []string{".gz", ".bz2", ".zst"}

// Formats lists every readable format.
var Formats = []Format{FormatFASTA, FormatFASTQ, FormatGenBank, FormatEMBL, FormatNexus, FormatTab}

// DetectFormat infers the format from the extension of path. A trailing
// compression suffix (.gz, .bz2, .zst) is ignored, so "x.fna.gz" is FASTA.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: cannot determine format of %s", ErrUnknownFormat, path)
}

// ParseFormat resolves a format name or one of its file extensions.
// The empty string is returned as is, meaning "detect from the path".
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if name == "" {
		return "", nil
	}
	if f, ok := extensions[name]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Writable reports whether records can be written in format f.
func (f Format) Writable() bool {
	switch f {
	case FormatFASTA, FormatFASTQ, FormatTab:
		return true
	default:
		return false
	}
}

// Resolve returns f if set, otherwise the format detected from path.
func Resolve(f Format, path string) (Format, error) {
	if f != "" {
		return ParseFormat(string(f))
	}
	return DetectFormat(path)
}
