package maple

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/seqbank/lib/db"
	dbtesting "github.com/ValentinKolb/seqbank/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestSingleShard(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(1)", func() db.KVDB {
		return NewMapleDB(&DBOptions{NumShards: 1, Mode: db.ReadWrite})
	})
}

func TestReadOnlyFeatures(t *testing.T) {
	database := NewMapleDB(&DBOptions{Mode: db.ReadOnly})
	defer database.Close()

	if database.SupportsFeature(db.FeatureSet) || database.SupportsFeature(db.FeatureDelete) {
		t.Errorf("Expected read-only database to not support write features")
	}
	if !database.SupportsFeature(db.FeatureGet | db.FeatureIterate) {
		t.Errorf("Expected read-only database to support reads")
	}
	if database.SupportsFeature(db.FeaturePersist) {
		t.Errorf("Expected maple to not support persistence")
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	database := NewMapleDB(&DBOptions{Mode: db.ReadOnly})
	defer database.Close()

	if err := database.Set([]byte("key"), []byte("value")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from Set, got %v", err)
	}
	if err := database.Delete([]byte("key")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from Delete, got %v", err)
	}
	if _, ok, _ := database.Get([]byte("key")); ok {
		t.Errorf("Expected a rejected Set to store nothing")
	}
}

func TestInfo(t *testing.T) {
	database := NewMapleDB(&DBOptions{NumShards: 4, Mode: db.ReadWrite})
	defer database.Close()

	for i := 0; i < 100; i++ {
		database.Set([]byte{byte(i)}, make([]byte, 100))
	}

	info := database.GetInfo()
	if info.DbType != db.ImplMaple {
		t.Errorf("Expected db type %s, got %s", db.ImplMaple, info.DbType)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected positive size estimate, got %d", info.SizeBytes)
	}
}

func Benchmark(t *testing.B) {
	dbtesting.RunKVDBBenchmarks(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}
