package maple

import (
	"bytes"
	"errors"
	"runtime"
	"sort"
	"sync"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrReadOnly is returned by Set and Delete on a read-only database.
var ErrReadOnly = errors.New("maple: database is read-only")

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// shard is a partition of the key space with its own concurrent map
type shard struct {
	data *xsync.MapOf[string, []byte]
}

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	seed     uint64
	shards   []*shard
	features db.Feature
	mode     db.Mode
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int     // Number of shards (0 = auto)
	Mode      db.Mode // ReadOnly databases reject Set and Delete with ErrReadOnly
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(),
		Mode:      db.ReadWrite,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	shards := make([]*shard, opts.NumShards)
	for i := range shards {
		shards[i] = &shard{data: xsync.NewMapOf[string, []byte]()}
	}

	features := db.FeatureGet | db.FeatureHas | db.FeatureIterate | db.FeatureSnapshot
	if opts.Mode == db.ReadWrite {
		features |= db.FeaturesWrite
	}

	return &mapleImpl{
		seed:     util.GenerateSeed(),
		shards:   shards,
		features: features,
		mode:     opts.Mode,
	}
}

// getShard returns the shard responsible for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) getShard(key []byte) *shard {
	// Shift right by 7 bits to use higher-quality bits for distribution
	h := util.HashBytes(key, maple.seed) >> 7
	return maple.shards[h%uint64(len(maple.shards))]
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry. The value is copied before it is stored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key, value []byte) error {
	if maple.mode == db.ReadOnly {
		return ErrReadOnly
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	maple.getShard(key).data.Store(string(key), valueCopy)
	return nil
}

// Delete removes an entry, missing keys are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key []byte) error {
	if maple.mode == db.ReadOnly {
		return ErrReadOnly
	}
	maple.getShard(key).data.Delete(string(key))
	return nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value for a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key []byte) ([]byte, bool, error) {
	value, ok := maple.getShard(key).data.Load(string(key))
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Has checks if a key exists in the database.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key []byte) (bool, error) {
	_, ok := maple.getShard(key).data.Load(string(key))
	return ok, nil
}

type entry struct {
	key   []byte
	value []byte
}

// Iterate collects the entries of all shards, sorts them by key and then calls fn.
// Stored values are never mutated in place (Set replaces the slice), so the
// collected slices form a snapshot as of the moment each shard was ranged over.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Iterate(fn func(key, value []byte) error) error {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		entries []entry
	)

	wg.Add(len(maple.shards))
	for _, s := range maple.shards {
		go func(s *shard) {
			defer wg.Done()
			local := make([]entry, 0, s.data.Size())
			s.data.Range(func(key string, value []byte) bool {
				local = append(local, entry{key: []byte(key), value: value})
				return true
			})
			mu.Lock()
			entries = append(entries, local...)
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database.
// SizeBytes is estimated from a sample of value sizes per shard.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	histogram := util.NewSizeHistogram()
	samplesPerShard := 100
	shardSizes := make([]float64, len(maple.shards))
	var entries int64

	for i, s := range maple.shards {
		count := 0
		s.data.Range(func(key string, value []byte) bool {
			histogram.AddSample(len(key) + len(value))
			count++
			return count < samplesPerShard
		})
		size := s.data.Size()
		shardSizes[i] = float64(size)
		entries += int64(size)
	}

	// weighted estimate (60% median, 40% average)
	perEntry := int64(histogram.MedianEstimate()*60+histogram.Average()*40) / 100

	meta := &struct {
		ShardCount        int                    `json:"shard_count" yaml:"shard_count"`
		Entries           int64                  `json:"entries" yaml:"entries"`
		ShardDistribution util.DistributionStats `json:"shard_distribution" yaml:"shard_distribution"`
		Info              string                 `json:"info" yaml:"info"`
	}{
		ShardCount:        len(maple.shards),
		Entries:           entries,
		ShardDistribution: util.NewDistributionStats(shardSizes),
		Info:              "SizeBytes is an estimate based on sampled entries.",
	}

	return db.DatabaseInfo{
		SizeBytes:         perEntry * entries,
		DbType:            db.ImplMaple,
		Mode:              maple.mode.String(),
		SupportedFeatures: db.FeatureList(maple.features),
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return maple.features&feature == feature
}

// Close is a no-op, the data is simply dropped with the database
func (maple *mapleImpl) Close() error {
	return nil
}
