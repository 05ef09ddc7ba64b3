package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/fetch"
)

// RefSeqBaseURL is the directory listing of the complete RefSeq release.
const RefSeqBaseURL = "https://ftp.ncbi.nlm.nih.gov/refseq/release/complete/"

var refseqLink = regexp.MustCompile(`>(.*?.genomic.fna.gz)</a>`)

// ParseRefSeqListing extracts the *.genomic.fna.gz file names from an HTML
// directory listing and sorts them by the number after the first dot
// ("complete.2.genomic.fna.gz" before "complete.10.genomic.fna.gz").
func ParseRefSeqListing(html string) ([]string, error) {
	matches := refseqLink.FindAllStringSubmatch(html, -1)

	type entry struct {
		name  string
		index int
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		parts := strings.Split(name, ".")
		if len(parts) < 2 {
			return nil, fmt.Errorf("refseq: unexpected file name %q", name)
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("refseq: file name %q has no numeric part: %w", name, err)
		}
		entries = append(entries, entry{name: name, index: index})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].index < entries[j].index
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

// RefSeqFilenames downloads the RefSeq listing into a temporary directory below
// tmpDir and returns the sorted genomic file names.
func RefSeqFilenames(ctx context.Context, dl fetch.Downloader, tmpDir string) ([]string, error) {
	var names []string
	err := fetch.WithTempDir(tmpDir, "refseq-", func(dir string) error {
		local := filepath.Join(dir, "refseq_complete.html")
		if err := dl.Download(ctx, RefSeqBaseURL, local); err != nil {
			return err
		}
		html, err := os.ReadFile(local)
		if err != nil {
			return err
		}
		names, err = ParseRefSeqListing(string(html))
		return err
	})
	return names, err
}

// RefSeqURLs returns the download URLs of all RefSeq genomic files in release order.
func RefSeqURLs(ctx context.Context, dl fetch.Downloader, tmpDir string) ([]string, error) {
	names, err := RefSeqFilenames(ctx, dl, tmpDir)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = RefSeqBaseURL + name
	}
	return urls, nil
}
