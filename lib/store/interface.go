package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/seqbank/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates the db used by the store.
// This is used to abstract the creation of the db from the store implementation.
// The factory is called lazily, on the first operation that needs the db.
type DBFactory func() (db.KVDB, error)

// IStore is the generic interface for interacting with an ordered key–value store.
// Failures are reported as *Error values (nil on success).
type IStore interface {
	// Get returns the value for a key. A missing key and a failed read both
	// return an *Error with code RetCReadFailed.
	Get(key []byte) (value []byte, err error)
	// Put inserts or overwrites a key–value pair.
	Put(key, value []byte) (err error)
	// Delete removes a key–value pair. Deleting a missing key is not an error.
	Delete(key []byte) (err error)
	// Has returns whether a key exists. Any failure is reported as false.
	Has(key []byte) (loaded bool)
	// Count scans the whole store and returns the number of entries.
	Count() (n int, err error)
	// Iterate calls fn for every entry in ascending key order on a point-in-time view.
	// The slices passed to fn are only valid during the call.
	Iterate(fn func(key, value []byte) error) (err error)
	// CopyInto writes every entry of this store into other. The copy is not atomic:
	// on failure the entries written so far stay in other.
	CopyInto(other IStore) (err error)
	// Close releases the db. It is idempotent and never fails; every other
	// operation afterwards returns an *Error with code RetCClosed.
	Close() (err error)
	// Path returns the location of the store.
	Path() string
	// Mode returns the mode the store was created with.
	Mode() db.Mode
	// Info returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	Info() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and, where known, the key and store path involved.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Key  []byte  // The key of the failed operation (optional)
	Path string  // The path of the store (optional)
	Err  error   // The underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
	if e.Key != nil {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code RetCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Command executed successfully.
	RetCInternalError                // 1: Command failed due to an internal error.
	RetCNotFound                     // 2: The store does not exist (read-only open).
	RetCReadFailed                   // 3: A key is missing or could not be read.
	RetCReadOnly                     // 4: Write on a read-only store.
	RetCClosed                       // 5: Operation on a closed store.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCReadFailed:
		return "ReadFailed"
	case RetCReadOnly:
		return "ReadOnly"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
