package lstore

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/db/engines/maple"
	"github.com/ValentinKolb/seqbank/lib/db/engines/pebble"
	"github.com/ValentinKolb/seqbank/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("store")

type storeImpl struct {
	path    string
	mode    db.Mode
	factory store.DBFactory

	mu     sync.RWMutex
	db     db.KVDB
	closed bool
}

// New creates a new local store. The factory is not called until the first
// operation that needs the db.
func New(path string, mode db.Mode, factory store.DBFactory) store.IStore {
	return &storeImpl{
		path:    path,
		mode:    mode,
		factory: factory,
	}
}

// OpenPebble creates a store backed by a pebble database at path.
// In read-only mode a missing or empty path fails with RetCNotFound. In
// read-write mode the directory and the database are created right away, so a
// bank that was opened for writing can always be reopened read-only.
func OpenPebble(path string, mode db.Mode) (store.IStore, error) {
	switch mode {
	case db.ReadOnly:
		entries, err := os.ReadDir(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &store.Error{Code: store.RetCNotFound, Msg: "store does not exist", Path: path, Err: err}
			}
			return nil, &store.Error{Code: store.RetCInternalError, Msg: "cannot read store", Path: path, Err: err}
		}
		if len(entries) == 0 {
			return nil, &store.Error{Code: store.RetCNotFound, Msg: "store is empty", Path: path}
		}
	case db.ReadWrite:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, &store.Error{Code: store.RetCInternalError, Msg: "cannot create store", Path: path, Err: err}
		}
	}

	opts := pebble.DefaultOptions()
	opts.Mode = mode
	s := New(path, mode, func() (db.KVDB, error) {
		return pebble.NewPebbleDB(path, opts)
	}).(*storeImpl)

	if mode == db.ReadWrite {
		if _, err := s.getDB(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenMemory creates a store backed by the in-memory maple engine. Nothing is
// written to disk; path is only used for error messages.
func OpenMemory(path string, mode db.Mode) store.IStore {
	opts := maple.DefaultOptions()
	opts.Mode = mode
	return New(path, mode, func() (db.KVDB, error) {
		return maple.NewMapleDB(opts), nil
	})
}

// getDB returns the db, opening it on first use.
//
// Thread-safety: This method is thread-safe, concurrent first calls open the db once.
func (s *storeImpl) getDB() (db.KVDB, error) {
	s.mu.RLock()
	d, closed := s.db, s.closed
	s.mu.RUnlock()
	if closed {
		return nil, s.errorf(store.RetCClosed, nil, nil, "store is closed")
	}
	if d != nil {
		return d, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, s.errorf(store.RetCClosed, nil, nil, "store is closed")
	}
	if s.db == nil {
		d, err := s.factory()
		if err != nil {
			code := store.RetCInternalError
			if errors.Is(err, pebble.ErrNotExist) {
				code = store.RetCNotFound
			}
			return nil, s.errorf(code, nil, err, "cannot open store")
		}
		plog.Debugf("opened %s store at %s (%s)", d.GetInfo().DbType, s.path, s.mode)
		s.db = d
	}
	return s.db, nil
}

func (s *storeImpl) errorf(code store.RetCode, key []byte, err error, format string, args ...any) *store.Error {
	return &store.Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Key:  key,
		Path: s.path,
		Err:  err,
	}
}

// writableDB returns the db if it accepts writes.
func (s *storeImpl) writableDB(key []byte) (db.KVDB, error) {
	if s.mode == db.ReadOnly {
		return nil, s.errorf(store.RetCReadOnly, key, nil, "store is read-only")
	}
	d, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if !d.SupportsFeature(db.FeaturesWrite) {
		return nil, s.errorf(store.RetCReadOnly, key, nil, "db does not support writes")
	}
	return d, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key []byte) ([]byte, error) {
	d, err := s.getDB()
	if err != nil {
		return nil, err
	}
	value, loaded, err := d.Get(key)
	if err != nil {
		return nil, s.errorf(store.RetCReadFailed, key, err, "read failed")
	}
	if !loaded {
		return nil, s.errorf(store.RetCReadFailed, key, nil, "key not found")
	}
	return value, nil
}

func (s *storeImpl) Put(key, value []byte) error {
	d, err := s.writableDB(key)
	if err != nil {
		return err
	}
	if err := d.Set(key, value); err != nil {
		return s.errorf(store.RetCInternalError, key, err, "write failed")
	}
	return nil
}

func (s *storeImpl) Delete(key []byte) error {
	d, err := s.writableDB(key)
	if err != nil {
		return err
	}
	if err := d.Delete(key); err != nil {
		return s.errorf(store.RetCInternalError, key, err, "delete failed")
	}
	return nil
}

func (s *storeImpl) Has(key []byte) bool {
	d, err := s.getDB()
	if err != nil {
		return false
	}
	loaded, err := d.Has(key)
	if err != nil {
		plog.Debugf("has %q failed: %v", key, err)
		return false
	}
	return loaded
}

func (s *storeImpl) Count() (int, error) {
	n := 0
	err := s.Iterate(func(key, value []byte) error {
		n++
		return nil
	})
	return n, err
}

func (s *storeImpl) Iterate(fn func(key, value []byte) error) error {
	d, err := s.getDB()
	if err != nil {
		return err
	}
	var fnErr error
	err = d.Iterate(func(key, value []byte) error {
		if err := fn(key, value); err != nil {
			fnErr = err
			return err
		}
		return nil
	})
	if fnErr != nil {
		// errors of the callback are passed through unchanged
		return fnErr
	}
	if err != nil {
		return s.errorf(store.RetCReadFailed, nil, err, "iteration failed")
	}
	return nil
}

func (s *storeImpl) CopyInto(other store.IStore) error {
	if other.Mode() != db.ReadWrite {
		return s.errorf(store.RetCReadOnly, nil, nil, "copy target %s is read-only", other.Path())
	}
	return s.Iterate(func(key, value []byte) error {
		return other.Put(key, value)
	})
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			plog.Warningf("closing store %s failed: %v", s.path, err)
		}
		s.db = nil
	}
	return nil
}

func (s *storeImpl) Path() string {
	return s.path
}

func (s *storeImpl) Mode() db.Mode {
	return s.mode
}

func (s *storeImpl) Info() (db.DatabaseInfo, error) {
	d, err := s.getDB()
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	return d.GetInfo(), nil
}
