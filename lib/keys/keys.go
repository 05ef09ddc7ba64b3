// Package keys derives the byte keys under which a seqbank stores its entries.
//
// Accessions are stored verbatim as ASCII. Bookkeeping entries live below
// ReservedPrefix, which no accession may start with, so the two key spaces
// never collide.
package keys

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const (
	// ReservedPrefix marks keys used by seqbank itself.
	ReservedPrefix = "/seqbank/"
	// URLPrefix is the namespace for "URL fully ingested" markers.
	URLPrefix = ReservedPrefix + "url/"
)

var (
	ErrEmpty    = errors.New("keys: empty accession")
	ErrNotASCII = errors.New("keys: value is not ASCII")
	ErrReserved = errors.New("keys: accession uses the reserved prefix " + ReservedPrefix)
)

// Accession returns the store key for an accession.
func Accession(accession string) ([]byte, error) {
	if accession == "" {
		return nil, ErrEmpty
	}
	if strings.HasPrefix(accession, ReservedPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrReserved, accession)
	}
	return ascii(accession)
}

// URL returns the bookkeeping key recording that url was ingested.
func URL(url string) ([]byte, error) {
	return ascii(URLPrefix + url)
}

// IsReserved reports whether key belongs to the bookkeeping namespace.
func IsReserved(key []byte) bool {
	return bytes.HasPrefix(key, []byte(ReservedPrefix))
}

// ascii copies s into a byte slice, rejecting bytes above 0x7f.
func ascii(s string) ([]byte, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("%w: %q (byte %d)", ErrNotASCII, s, i)
		}
		out[i] = s[i]
	}
	return out, nil
}
