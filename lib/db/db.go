package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple  Implementation = "maple"
	ImplPebble Implementation = "pebble"
)

// Mode selects how a database is opened.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet      Feature = 1 << iota // Support for Set operations
	FeatureGet                          // Support for Get operations
	FeatureDelete                       // Support for Delete operations
	FeatureHas                          // Support for Has operations
	FeatureIterate                      // Support for ordered iteration
	FeatureSnapshot                     // Iteration observes a point-in-time snapshot
	FeaturePersist                      // Data survives Close
)

// FeaturesWrite is the set of features a read-only handle lacks.
const FeaturesWrite = FeatureSet | FeatureDelete

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureIterate:
		return "Iterate"
	case FeatureSnapshot:
		return "Snapshot"
	case FeaturePersist:
		return "Persist"
	default:
		return "Unknown"
	}
}

// AllFeatures lists every single feature flag, used to expand a bitmask for reporting.
var AllFeatures = []Feature{
	FeatureSet, FeatureGet, FeatureDelete, FeatureHas, FeatureIterate, FeatureSnapshot, FeaturePersist,
}

// FeatureList expands a bitmask into its single flags.
func FeatureList(mask Feature) []Feature {
	var out []Feature
	for _, f := range AllFeatures {
		if mask&f == f {
			out = append(out, f)
		}
	}
	return out
}

type DatabaseInfo struct {
	SizeBytes         int64          `json:"size_bytes" yaml:"size_bytes"`
	DbType            Implementation `json:"db_type" yaml:"db_type"`
	Mode              string         `json:"mode" yaml:"mode"`
	SupportedFeatures []Feature      `json:"supported_features" yaml:"supported_features"`
	Metadata          interface{}    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for ordered byte-key databases.
// Keys are compared bytewise. Implementations must be safe for concurrent use;
// concurrent writes to distinct keys must not interfere with each other.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry. If the key already exists, the old value is overwritten.
	// The value is copied; the caller may reuse the slice afterwards.
	Set(key, value []byte) (err error)

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(key []byte) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a copy of the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)

	// Has checks whether a key exists in the database.
	Has(key []byte) (loaded bool, err error)

	// Iterate calls fn for every entry in ascending key order. The key and value
	// slices are only valid during the call. Iteration stops at the first error
	// returned by fn, which is then returned by Iterate.
	Iterate(fn func(key, value []byte) error) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database. Calling any other method afterwards is undefined.
	Close() (err error)
}
