package filter

import (
	"fmt"
	"os"
	"strings"
)

// Spec describes where an accession filter comes from. It is one of nil, List,
// File or an already parsed Set.
type Spec interface {
	isSpec()
}

// List is an inline collection of accessions.
type List []string

// File is the path of a text file with one accession per line.
type File string

func (List) isSpec() {}
func (File) isSpec() {}
func (Set) isSpec()  {}

// Set is an allow-list of accessions. A nil Set accepts everything.
type Set map[string]struct{}

// Allows reports whether acc passes the filter.
func (s Set) Allows(acc string) bool {
	if s == nil {
		return true
	}
	_, ok := s[acc]
	return ok
}

// Len returns the number of accessions in the set.
func (s Set) Len() int {
	return len(s)
}

// Parse turns a Spec into a Set. A nil spec and an empty list both yield a nil Set.
func Parse(spec Spec) (Set, error) {
	var accessions []string
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case Set:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case List:
		accessions = v
	case File:
		lines, err := ReadLines(string(v))
		if err != nil {
			return nil, err
		}
		accessions = lines
	default:
		return nil, fmt.Errorf("filter: unsupported spec %T", spec)
	}

	if len(accessions) == 0 {
		return nil, nil
	}
	set := make(Set, len(accessions))
	for _, acc := range accessions {
		set[acc] = struct{}{}
	}
	return set, nil
}

// ReadLines reads path, trims trailing whitespace and splits the content on newlines.
// Leading whitespace and interior blank lines are kept as they are.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accession file %s: %w", path, err)
	}
	text := strings.TrimRight(string(data), " \t\r\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
