package lstore

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/db/engines/maple"
	"github.com/ValentinKolb/seqbank/lib/store"
)

// storeFactory creates a fresh store for a test
type storeFactory func(t *testing.T) store.IStore

func pebbleStore(t *testing.T) store.IStore {
	s, err := OpenPebble(filepath.Join(t.TempDir(), "bank"), db.ReadWrite)
	if err != nil {
		t.Fatalf("OpenPebble failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func memoryStore(t *testing.T) store.IStore {
	s := OpenMemory("memory", db.ReadWrite)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	for name, factory := range map[string]storeFactory{
		"Pebble": pebbleStore,
		"Memory": memoryStore,
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("PutGetHas", func(t *testing.T) { testPutGetHas(t, factory(t)) })
			t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, factory(t)) })
			t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
			t.Run("Count", func(t *testing.T) { testCount(t, factory(t)) })
			t.Run("CopyInto", func(t *testing.T) { testCopyInto(t, factory(t), factory(t)) })
			t.Run("Closed", func(t *testing.T) { testClosed(t, factory(t)) })
		})
	}
}

func testPutGetHas(t *testing.T, s store.IStore) {
	key := []byte("NC_000001")
	value := []byte{1, 2, 3, 4}

	if s.Has(key) {
		t.Errorf("Expected Has to return false before Put")
	}
	if err := s.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !s.Has(key) {
		t.Errorf("Expected Has to return true after Put")
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Expected value %v, got %v", value, got)
	}

	// overwrite
	if err := s.Put(key, []byte{4, 3}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, _ = s.Get(key)
	if !bytes.Equal(got, []byte{4, 3}) {
		t.Errorf("Expected overwritten value [4 3], got %v", got)
	}
}

func testDeleteMissing(t *testing.T, s store.IStore) {
	if err := s.Delete([]byte("missing")); err != nil {
		t.Errorf("Expected Delete of a missing key to succeed, got %v", err)
	}

	s.Put([]byte("present"), []byte{1})
	if err := s.Delete([]byte("present")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Has([]byte("present")) {
		t.Errorf("Expected key to be gone after Delete")
	}
}

func testGetMissing(t *testing.T, s store.IStore) {
	_, err := s.Get([]byte("missing"))
	if !store.IsCode(err, store.RetCReadFailed) {
		t.Fatalf("Expected RetCReadFailed, got %v", err)
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *store.Error, got %T", err)
	}
	if string(storeErr.Key) != "missing" {
		t.Errorf("Expected key missing in error, got %q", storeErr.Key)
	}
	if storeErr.Path != s.Path() {
		t.Errorf("Expected path %s in error, got %s", s.Path(), storeErr.Path)
	}
}

func testCount(t *testing.T, s store.IStore) {
	n, err := s.Count()
	if err != nil || n != 0 {
		t.Fatalf("Expected empty store, got n=%d err=%v", n, err)
	}
	for i := 0; i < 25; i++ {
		s.Put([]byte(fmt.Sprintf("acc-%02d", i)), []byte{1})
	}
	n, err = s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 25 {
		t.Errorf("Expected 25 entries, got %d", n)
	}
}

func testCopyInto(t *testing.T, src, dst store.IStore) {
	for i := 0; i < 10; i++ {
		src.Put([]byte(fmt.Sprintf("acc-%d", i)), []byte{byte(i % 5)})
	}
	dst.Put([]byte("existing"), []byte{2})

	if err := src.CopyInto(dst); err != nil {
		t.Fatalf("CopyInto failed: %v", err)
	}

	n, _ := dst.Count()
	if n != 11 {
		t.Errorf("Expected 11 entries in target, got %d", n)
	}
	got, err := dst.Get([]byte("acc-7"))
	if err != nil || !bytes.Equal(got, []byte{2}) {
		t.Errorf("Expected copied value [2], got %v (err %v)", got, err)
	}
}

func testClosed(t *testing.T, s store.IStore) {
	s.Put([]byte("key"), []byte{1})

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}

	if _, err := s.Get([]byte("key")); !store.IsCode(err, store.RetCClosed) {
		t.Errorf("Expected RetCClosed from Get, got %v", err)
	}
	if err := s.Put([]byte("key"), []byte{1}); !store.IsCode(err, store.RetCClosed) {
		t.Errorf("Expected RetCClosed from Put, got %v", err)
	}
	if s.Has([]byte("key")) {
		t.Errorf("Expected Has to return false on a closed store")
	}
}

func TestOpenPebbleReadOnlyMissing(t *testing.T) {
	_, err := OpenPebble(filepath.Join(t.TempDir(), "missing"), db.ReadOnly)
	if !store.IsCode(err, store.RetCNotFound) {
		t.Errorf("Expected RetCNotFound, got %v", err)
	}
}

func TestOpenPebbleReadOnlyEmptyDir(t *testing.T) {
	_, err := OpenPebble(t.TempDir(), db.ReadOnly)
	if !store.IsCode(err, store.RetCNotFound) {
		t.Errorf("Expected RetCNotFound for an empty directory, got %v", err)
	}
}

func TestOpenPebbleUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank")

	rw, err := OpenPebble(path, db.ReadWrite)
	if err != nil {
		t.Fatalf("OpenPebble failed: %v", err)
	}
	rw.Close()

	ro, err := OpenPebble(path, db.ReadOnly)
	if err != nil {
		t.Fatalf("OpenPebble read-only failed: %v", err)
	}
	defer ro.Close()

	if _, err := ro.Get([]byte("NC_000001")); !store.IsCode(err, store.RetCReadFailed) {
		t.Errorf("Expected RetCReadFailed for a missing key, got %v", err)
	}
	if ro.Has([]byte("NC_000001")) {
		t.Errorf("Expected an untouched store to be empty")
	}
}

func TestReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank")

	rw, err := OpenPebble(path, db.ReadWrite)
	if err != nil {
		t.Fatalf("OpenPebble failed: %v", err)
	}
	if err := rw.Put([]byte("NC_000001"), []byte{1, 2}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rw.Close()

	ro, err := OpenPebble(path, db.ReadOnly)
	if err != nil {
		t.Fatalf("OpenPebble read-only failed: %v", err)
	}
	defer ro.Close()

	if err := ro.Put([]byte("x"), []byte{1}); !store.IsCode(err, store.RetCReadOnly) {
		t.Errorf("Expected RetCReadOnly from Put, got %v", err)
	}
	if err := ro.Delete([]byte("NC_000001")); !store.IsCode(err, store.RetCReadOnly) {
		t.Errorf("Expected RetCReadOnly from Delete, got %v", err)
	}
	if !ro.Has([]byte("NC_000001")) {
		t.Errorf("Expected key to be readable in read-only mode")
	}

	// copying into a read-only store is rejected
	src := memoryStore(t)
	if err := src.CopyInto(ro); !store.IsCode(err, store.RetCReadOnly) {
		t.Errorf("Expected RetCReadOnly from CopyInto, got %v", err)
	}
}

func TestLazyOpen(t *testing.T) {
	calls := 0
	s := New("lazy", db.ReadWrite, func() (db.KVDB, error) {
		calls++
		return maple.NewMapleDB(nil), nil
	})
	defer s.Close()

	if calls != 0 {
		t.Fatalf("Expected factory to not be called before first use, got %d calls", calls)
	}
	s.Has([]byte("a"))
	s.Put([]byte("a"), []byte{1})
	s.Get([]byte("a"))
	if calls != 1 {
		t.Errorf("Expected factory to be called once, got %d calls", calls)
	}

	failing := New("failing", db.ReadWrite, func() (db.KVDB, error) {
		return nil, errors.New("boom")
	})
	if _, err := failing.Get([]byte("a")); !store.IsCode(err, store.RetCInternalError) {
		t.Errorf("Expected RetCInternalError from a failing factory, got %v", err)
	}
}
