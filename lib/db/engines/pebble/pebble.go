package pebble

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultMaxOpenFiles    = 500
	defaultBloomBitsPerKey = 10
	numLevels              = 7
)

// ErrNotExist is returned when a read-only database is opened at a path that does not exist.
var ErrNotExist = errors.New("pebble: database does not exist")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// DBOptions configures the pebble engine at open time.
type DBOptions struct {
	Mode            db.Mode // ReadOnly or ReadWrite
	MaxOpenFiles    int     // Bound on open sstable handles (0 = default: 500)
	BloomBitsPerKey int     // Bloom filter size per key (0 = default: 10)
	Sync            bool    // fsync the WAL on every write
}

// DefaultOptions returns the default options for a read-write database.
func DefaultOptions() *DBOptions {
	return &DBOptions{
		Mode:            db.ReadWrite,
		MaxOpenFiles:    defaultMaxOpenFiles,
		BloomBitsPerKey: defaultBloomBitsPerKey,
	}
}

// pebbleOptions translates DBOptions into pebble options.
// Sequence payloads are already one byte per residue and reads are point lookups,
// so every level disables block compression and keeps a bloom filter.
func (o *DBOptions) pebbleOptions() *pebble.Options {
	opts := &pebble.Options{
		ReadOnly:     o.Mode == db.ReadOnly,
		MaxOpenFiles: o.MaxOpenFiles,
		Levels:       make([]pebble.LevelOptions, numLevels),
	}
	for i := range opts.Levels {
		opts.Levels[i] = pebble.LevelOptions{
			Compression:  pebble.NoCompression,
			FilterPolicy: bloom.FilterPolicy(o.BloomBitsPerKey),
			FilterType:   pebble.TableFilter,
		}
	}
	return opts
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

type pebbleImpl struct {
	path      string
	mode      db.Mode
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	features  db.Feature
	closed    atomic.Bool
}

// NewPebbleDB opens (or, in read-write mode, creates) a pebble database at path.
// In read-only mode a missing path fails with ErrNotExist.
//
// Thread-safety: the returned database is safe for concurrent use.
func NewPebbleDB(path string, opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.MaxOpenFiles <= 0 {
		opts.MaxOpenFiles = defaultMaxOpenFiles
	}
	if opts.BloomBitsPerKey <= 0 {
		opts.BloomBitsPerKey = defaultBloomBitsPerKey
	}

	if opts.Mode == db.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
			}
			return nil, err
		}
	}

	pdb, err := pebble.Open(path, opts.pebbleOptions())
	if err != nil {
		return nil, fmt.Errorf("open pebble database %s: %w", path, err)
	}

	features := db.FeatureGet | db.FeatureHas | db.FeatureIterate | db.FeatureSnapshot | db.FeaturePersist
	if opts.Mode == db.ReadWrite {
		features |= db.FeaturesWrite
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	return &pebbleImpl{
		path:      path,
		mode:      opts.Mode,
		db:        pdb,
		writeOpts: writeOpts,
		features:  features,
	}, nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

func (p *pebbleImpl) Set(key, value []byte) error {
	return p.db.Set(key, value, p.writeOpts)
}

func (p *pebbleImpl) Delete(key []byte) error {
	// pebble writes a tombstone; deleting an absent key is not an error
	return p.db.Delete(key, p.writeOpts)
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

func (p *pebbleImpl) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// the returned slice is only valid until closer is closed
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (p *pebbleImpl) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = closer.Close()
	return true, nil
}

// Iterate walks all entries of an explicit snapshot, so writes that happen
// during iteration are not observed.
func (p *pebbleImpl) Iterate(fn func(key, value []byte) error) (err error) {
	snap := p.db.NewSnapshot()
	defer func() {
		if cerr := snap.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	iter := snap.NewIter(nil)
	defer func() {
		if cerr := iter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for valid := iter.First(); valid; valid = iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

func (p *pebbleImpl) SupportsFeature(feature db.Feature) bool {
	return p.features&feature == feature
}

func (p *pebbleImpl) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		SizeBytes:         int64(p.db.Metrics().DiskSpaceUsage()),
		DbType:            db.ImplPebble,
		Mode:              p.mode.String(),
		SupportedFeatures: db.FeatureList(p.features),
		Metadata: map[string]any{
			"path": p.path,
		},
	}
}

// Close closes the underlying pebble database. Pebble panics when closed twice,
// so repeated calls are ignored here.
func (p *pebbleImpl) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}
