// Package lstore implements the store.IStore interface on top of a single
// db.KVDB. It is a thin wrapper that adds lazy opening, open modes and
// typed errors.
//
// Implementation Details:
//
//   - Lazy Open: The store.DBFactory is only called on the first operation that
//     needs the db. OpenPebble is the exception in read-write mode: it creates
//     the database at open time so an untouched bank is still a valid bank.
//
//   - Modes: A read-only store rejects Put and Delete with RetCReadOnly before the
//     db is consulted. OpenPebble refuses to open a missing or empty path
//     read-only (RetCNotFound) and creates the database in read-write mode.
//
//   - Close: Close is idempotent and never returns an error. A failure of the
//     underlying db is logged. Every operation afterwards fails with RetCClosed.
//
// Thread Safety:
//
//	All operations are thread-safe. The db handle is guarded by a RWMutex; the
//	db.KVDB implementation provides its own guarantees for concurrent reads and writes.
//
// Usage Example:
//
//	s, err := lstore.OpenPebble("/data/bank", db.ReadWrite)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Put([]byte("NC_000001"), encoded)
//	value, err := s.Get([]byte("NC_000001"))
package lstore
