// Package store provides a high-level interface for ordered key-value storage
// with unified error handling. It serves as an abstraction layer over the
// lower-level db.KVDB implementations, adding lazy opening, open modes and
// standardized error reporting.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. Keys and values are raw bytes; keys are ordered bytewise.
//
//   - Error System: A structured error reporting mechanism using typed error codes.
//     Every failure carries a RetCode and, where known, the key and store path. The
//     underlying engine error is kept and can be reached with errors.Is/errors.As.
//     IsCode checks the code of a (possibly wrapped) error.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances. Stores call it lazily so that constructing a store never touches disk.
//
// Implementations:
//
//	The local store (lstore) wraps a single db.KVDB and is the only implementation.
//	Available in the "github.com/ValentinKolb/seqbank/lib/store/lstore" package.
package store
