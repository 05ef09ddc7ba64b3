package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/seqbank/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory())
	})

	b.Run("SetLargeValue", func(b *testing.B) {
		benchmarkSetLargeValue(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, factory())
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, factory())
	})

	b.Run("Iterate", func(b *testing.B) {
		benchmarkIterate(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			key := []byte(fmt.Sprintf("test-key-%d", i))
			value := []byte(fmt.Sprintf("test-value-%d", i))
			database.Set(key, value)
		}
	})
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	// Prepare data
	numKeys := b.N
	for i := 0; i < numKeys; i++ {
		key := []byte(fmt.Sprintf("test-key-%d", i))
		value := []byte(fmt.Sprintf("test-value-%d", i))
		database.Set(key, value)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := []byte(fmt.Sprintf("test-key-%d", counter%numKeys))
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			database.Set(key, value)
			counter++
		}
	})
}

// Benchmark for Set operation with sequence sized values (64KB)
func benchmarkSetLargeValue(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	value := make([]byte, 64*1024)
	for i := range value {
		value[i] = byte(i%4 + 1)
	}

	b.SetBytes(int64(len(value)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Set([]byte(fmt.Sprintf("large-key-%d", i)), value)
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)

	// Prepare data
	numKeys := 10000
	keys := make([][]byte, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = []byte(fmt.Sprintf("test-key-%d", i))
		database.Set(keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Get(keys[counter%numKeys])
			counter++
		}
	})
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureDelete)

	// Prepare data
	keys := make([][]byte, b.N)
	for i := 0; i < b.N; i++ {
		keys[i] = []byte(fmt.Sprintf("test-key-%d", i))
		database.Set(keys[i], []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Delete(keys[i])
	}
}

// Benchmark for Has operation on missing keys
func benchmarkHasNot(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureHas)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Has([]byte(fmt.Sprintf("missing-key-%d", counter)))
			counter++
		}
	})
}

// Benchmark for Has operation
func benchmarkHas(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureHas)

	// Prepare data
	numKeys := 10000
	keys := make([][]byte, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = []byte(fmt.Sprintf("test-key-%d", i))
		database.Set(keys[i], []byte("value"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Has(keys[counter%numKeys])
			counter++
		}
	})
}

// Benchmark for a full ordered scan
func benchmarkIterate(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureIterate)

	numKeys := 10000
	for i := 0; i < numKeys; i++ {
		database.Set([]byte(fmt.Sprintf("test-key-%d", i)), []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Iterate(func(key, value []byte) error {
			return nil
		})
	}
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)
	requireFeature(b, database, db.FeatureDelete)
	requireFeature(b, database, db.FeatureHas)

	// Number of pre-populated keys
	numKeys := 100000
	if b.N < numKeys {
		numKeys = b.N
	}

	// Prepare initial data
	keys := make([][]byte, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = []byte(fmt.Sprintf("test-key-%d", i))
		database.Set(keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		// Local counter for each goroutine
		localCounter := 0

		for pb.Next() {
			// Get a somewhat random index
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys

			// For every 10th operation, use a completely new key
			var key []byte
			if localCounter%10 == 0 {
				key = []byte(fmt.Sprintf("new-key-%d", localCounter))
			} else {
				key = keys[idx]
			}

			// Perform the selected operation
			switch localCounter % 4 {
			case 0:
				database.Get(key)
			case 1:
				database.Set(key, []byte(fmt.Sprintf("mixed-value-%d", localCounter)))
			case 2:
				database.Delete(key)
			case 3:
				database.Has(key)
			}

			localCounter++
		}
	})
}
