package seqbank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/codec"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/fetch"
	"github.com/ValentinKolb/seqbank/lib/keys"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/ValentinKolb/seqbank/lib/store"
	"github.com/ValentinKolb/seqbank/lib/store/lstore"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("seqbank")

// SeenTimeLayout is the format of the timestamp stored for every ingested URL.
const SeenTimeLayout = "2006-01-02 15:04:05"

// Options configures a SeqBank. The zero value is usable.
type Options struct {
	// Memory keeps the bank in memory instead of opening the path on disk.
	Memory bool
	// Downloader fetches remote files (default: fetch.NewHTTPDownloader()).
	Downloader fetch.Downloader
	// Progress shows progress bars on stderr during ingestion.
	Progress bool
	// Metrics receives ingestion counters (default: a fresh set).
	Metrics *Metrics
}

// SeqBank maps accessions to encoded sequences.
//
// Thread-safety: all methods are safe for concurrent use. A read-write bank on
// disk may only be open in one process at a time.
type SeqBank struct {
	store      store.IStore
	downloader fetch.Downloader
	progress   bool
	metrics    *Metrics
}

// Open opens the bank at path. A leading "~" is expanded to the home directory.
// In read-only mode a missing path fails with a RetCNotFound store error, in
// read-write mode the bank is created if necessary.
func Open(path string, mode db.Mode, opts *Options) (*SeqBank, error) {
	if opts == nil {
		opts = &Options{}
	}
	path, err := expandUser(path)
	if err != nil {
		return nil, err
	}

	var s store.IStore
	if opts.Memory {
		s = lstore.OpenMemory(path, mode)
	} else {
		s, err = lstore.OpenPebble(path, mode)
		if err != nil {
			return nil, err
		}
	}
	return New(s, opts), nil
}

// New wraps an existing store.
func New(s store.IStore, opts *Options) *SeqBank {
	if opts == nil {
		opts = &Options{}
	}
	sb := &SeqBank{
		store:      s,
		downloader: opts.Downloader,
		progress:   opts.Progress,
		metrics:    opts.Metrics,
	}
	if sb.downloader == nil {
		sb.downloader = fetch.NewHTTPDownloader()
	}
	if sb.metrics == nil {
		sb.metrics = NewMetrics()
	}
	return sb
}

func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Close closes the underlying store. It is idempotent and never fails.
func (sb *SeqBank) Close() error {
	return sb.store.Close()
}

// Path returns the location of the bank.
func (sb *SeqBank) Path() string { return sb.store.Path() }

// Mode returns the mode the bank was opened with.
func (sb *SeqBank) Mode() db.Mode { return sb.store.Mode() }

// Store returns the underlying store.
func (sb *SeqBank) Store() store.IStore { return sb.store }

// Metrics returns the ingestion counters of the bank.
func (sb *SeqBank) Metrics() *Metrics { return sb.metrics }

// --------------------------------------------------------------------------
// Single entries
// --------------------------------------------------------------------------

// Add stores a sequence under accession, overwriting an existing entry.
func (sb *SeqBank) Add(accession string, seq SequenceInput) error {
	key, err := keys.Accession(accession)
	if err != nil {
		return err
	}
	if seq == nil {
		return fmt.Errorf("add %s: no sequence", accession)
	}
	if err := sb.store.Put(key, seq.canonical()); err != nil {
		return fmt.Errorf("add %s: %w", accession, err)
	}
	return nil
}

// Has reports whether accession is stored. It never fails; invalid accessions are absent.
func (sb *SeqBank) Has(accession string) bool {
	key, err := keys.Accession(accession)
	if err != nil {
		return false
	}
	return sb.store.Has(key)
}

// Delete removes accession. Deleting a missing accession is not an error.
func (sb *SeqBank) Delete(accession string) error {
	key, err := keys.Accession(accession)
	if err != nil {
		return err
	}
	if err := sb.store.Delete(key); err != nil {
		return fmt.Errorf("delete %s: %w", accession, err)
	}
	return nil
}

// Numeric returns the encoded sequence of accession, one byte per residue.
func (sb *SeqBank) Numeric(accession string) ([]byte, error) {
	key, err := keys.Accession(accession)
	if err != nil {
		return nil, err
	}
	value, err := sb.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in seqbank %s: %w", accession, sb.Path(), err)
	}
	return value, nil
}

// String returns the decoded sequence of accession.
func (sb *SeqBank) String(accession string) (string, error) {
	value, err := sb.Numeric(accession)
	if err != nil {
		return "", err
	}
	return codec.Decode(value), nil
}

// Record returns accession as a record with its decoded sequence.
func (sb *SeqBank) Record(accession string) (seqio.Record, error) {
	value, err := sb.Numeric(accession)
	if err != nil {
		return seqio.Record{}, err
	}
	return seqio.Record{ID: accession, Seq: codec.DecodeBytes(value)}, nil
}

// --------------------------------------------------------------------------
// Whole bank
// --------------------------------------------------------------------------

// Items calls fn for every sequence entry in ascending accession order.
// Bookkeeping entries are skipped. The encoded slice is only valid during the call.
func (sb *SeqBank) Items(fn func(accession string, encoded []byte) error) error {
	return sb.store.Iterate(func(key, value []byte) error {
		if keys.IsReserved(key) {
			return nil
		}
		return fn(string(key), value)
	})
}

// Accessions returns all stored accessions in ascending order.
func (sb *SeqBank) Accessions() ([]string, error) {
	var accessions []string
	err := sb.Items(func(accession string, _ []byte) error {
		accessions = append(accessions, accession)
		return nil
	})
	return accessions, err
}

// Keys calls fn for every key in the bank, bookkeeping entries included.
func (sb *SeqBank) Keys(fn func(key string) error) error {
	return sb.store.Iterate(func(key, _ []byte) error {
		return fn(string(key))
	})
}

// Len returns the number of sequence entries. Bookkeeping entries are not counted.
func (sb *SeqBank) Len() (int, error) {
	n := 0
	err := sb.Items(func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Missing returns the accessions of the input that are not stored, in input
// order and without duplicates.
func (sb *SeqBank) Missing(accessions []string) []string {
	seen := make(map[string]struct{}, len(accessions))
	var missing []string
	for _, acc := range accessions {
		if _, ok := seen[acc]; ok {
			continue
		}
		seen[acc] = struct{}{}
		if !sb.Has(acc) {
			missing = append(missing, acc)
		}
	}
	return missing
}

// Copy writes every entry of this bank, bookkeeping entries included, into other.
// other must be writable. The copy is not atomic.
func (sb *SeqBank) Copy(other *SeqBank) error {
	if err := sb.store.CopyInto(other.store); err != nil {
		return fmt.Errorf("copy %s into %s: %w", sb.Path(), other.Path(), err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Bookkeeping
// --------------------------------------------------------------------------

// SeenURL reports whether url was fully ingested before.
func (sb *SeqBank) SeenURL(url string) bool {
	key, err := keys.URL(url)
	if err != nil {
		return false
	}
	return sb.store.Has(key)
}

// SaveSeenURL marks url as fully ingested with the current local time.
func (sb *SeqBank) SaveSeenURL(url string) error {
	key, err := keys.URL(url)
	if err != nil {
		return err
	}
	if err := sb.store.Put(key, []byte(now().Format(SeenTimeLayout))); err != nil {
		return fmt.Errorf("mark %s as seen: %w", url, err)
	}
	return nil
}
