package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/seqbank/lib/db"
)

// DBFactory is a function that creates a new, empty instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Iterate", func(t *testing.T) {
			testIterate(t, factory())
		})

		t.Run("IterateStop", func(t *testing.T) {
			testIterateStop(t, factory())
		})

		t.Run("IterateSnapshot", func(t *testing.T) {
			testIterateSnapshot(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustSet(t testing.TB, database db.KVDB, key string, value []byte) {
	if err := database.Set([]byte(key), value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mustGet(t testing.TB, database db.KVDB, key string) ([]byte, bool) {
	value, loaded, err := database.Get([]byte(key))
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, loaded
}

func mustHas(t testing.TB, database db.KVDB, key string) bool {
	loaded, err := database.Has([]byte(key))
	if err != nil {
		t.Fatalf("Has(%q) failed: %v", key, err)
	}
	return loaded
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, database, testKey, testValue1)

	result, exists := mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, database, testKey, testValue2)

	result, exists = mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = mustGet(t, database, "nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// Get must return a copy
	retrievedValue, _ := mustGet(t, database, testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := mustGet(t, database, testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// Set must copy its input
	input := []byte("input-value")
	mustSet(t, database, "copy-key", input)
	input[0] = 'X'

	result, _ = mustGet(t, database, "copy-key")
	if !bytes.Equal(result, []byte("input-value")) {
		t.Errorf("Expected value input-value after modifying the input slice, got %s", result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	testKey := "delete-test-key"
	mustSet(t, database, testKey, []byte("delete-test-value"))

	if err := database.Delete([]byte(testKey)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, exists := mustGet(t, database, testKey)
	if exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	// deleting a missing key is not an error
	if err := database.Delete([]byte("nonexistent-key")); err != nil {
		t.Errorf("Expected Delete of a missing key to succeed, got %v", err)
	}
	if err := database.Delete([]byte(testKey)); err != nil {
		t.Errorf("Expected second Delete to succeed, got %v", err)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureHas)

	testKey := "has-test-key"

	if mustHas(t, database, testKey) {
		t.Errorf("Expected Has to return false for key %s before Set", testKey)
	}

	mustSet(t, database, testKey, []byte("has-test-value"))

	if !mustHas(t, database, testKey) {
		t.Errorf("Expected Has to return true for key %s after Set", testKey)
	}

	// an empty value still counts as present
	mustSet(t, database, "empty", nil)
	if !mustHas(t, database, "empty") {
		t.Errorf("Expected Has to return true for a key with an empty value")
	}
}

func testIterate(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureIterate)

	keys := []string{"b", "a", "ab", "B", "c\x00", "c", "aa\xff", "zzz", "0"}
	for _, key := range keys {
		mustSet(t, database, key, []byte("v-"+key))
	}

	expected := append([]string(nil), keys...)
	sort.Strings(expected) // bytewise order

	var got []string
	err := database.Iterate(func(key, value []byte) error {
		if !bytes.Equal(value, []byte("v-"+string(key))) {
			t.Errorf("Expected value v-%s, got %s", key, value)
		}
		got = append(got, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected key %q at position %d, got %q", expected[i], i, got[i])
		}
	}
}

func testIterateStop(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureIterate)

	for i := 0; i < 10; i++ {
		mustSet(t, database, fmt.Sprintf("key-%d", i), []byte("value"))
	}

	errStop := errors.New("stop")
	visited := 0
	err := database.Iterate(func(key, value []byte) error {
		visited++
		if visited == 3 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Errorf("Expected Iterate to return the callback error, got %v", err)
	}
	if visited != 3 {
		t.Errorf("Expected iteration to stop after 3 entries, visited %d", visited)
	}
}

func testIterateSnapshot(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureIterate)
	requireFeature(t, database, db.FeatureSnapshot)

	numKeys := 100
	for i := 0; i < numKeys; i++ {
		mustSet(t, database, fmt.Sprintf("key-%03d", i), []byte("old"))
	}

	visited := 0
	err := database.Iterate(func(key, value []byte) error {
		visited++
		// writes during iteration must not be observed
		if err := database.Set([]byte(fmt.Sprintf("new-%03d", visited)), []byte("new")); err != nil {
			return err
		}
		if err := database.Set([]byte(fmt.Sprintf("key-%03d", numKeys-1)), []byte("new")); err != nil {
			return err
		}
		if !bytes.Equal(value, []byte("old")) {
			t.Errorf("Expected snapshot value old for key %s, got %s", key, value)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if visited != numKeys {
		t.Errorf("Expected %d entries in snapshot, got %d", numKeys, visited)
	}

	if !mustHas(t, database, "new-001") {
		t.Errorf("Expected writes during iteration to be visible afterwards")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	emptyValueKey := "empty-value-key"
	mustSet(t, database, emptyValueKey, []byte{})

	result, exists := mustGet(t, database, emptyValueKey)
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Empty value mismatch: %v", result)
	}

	nilValueKey := "nil-value-key"
	mustSet(t, database, nilValueKey, nil)

	result, exists = mustGet(t, database, nilValueKey)
	if !exists {
		t.Errorf("Key for nil value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	binaryKey := string([]byte{0, 1, 2, 0xff})
	mustSet(t, database, binaryKey, []byte{0, 0, 0})
	result, exists = mustGet(t, database, binaryKey)
	if !exists || !bytes.Equal(result, []byte{0, 0, 0}) {
		t.Errorf("Binary key mismatch: exists=%v value=%v", exists, result)
	}

	if !t.Failed() {

		largeKey := string(bytes.Repeat([]byte("k"), 1000))
		largeKeyValue := []byte("value for large key")

		mustSet(t, database, largeKey, largeKeyValue)

		result, exists = mustGet(t, database, largeKey)
		if !exists {
			t.Errorf("Large key not found after Set")
		} else if !bytes.Equal(result, largeKeyValue) {
			t.Errorf("Value mismatch for large key")
		}

		// roughly the size of a bacterial genome
		largeValueKey := "large-value-key"
		largeValue := make([]byte, 8*1024*1024)
		for i := range largeValue {
			largeValue[i] = byte(i%4 + 1)
		}

		mustSet(t, database, largeValueKey, largeValue)

		result, exists = mustGet(t, database, largeValueKey)
		if !exists {
			t.Errorf("Key for large value not found after Set")
		} else if !bytes.Equal(result, largeValue) {
			headMismatch := !bytes.Equal(result[:10], largeValue[:10])
			tailMismatch := len(result) < 10 || !bytes.Equal(result[len(result)-10:], largeValue[len(largeValue)-10:])
			t.Errorf("Large value mismatch: Head mismatch=%v, Tail mismatch=%v, Size mismatch=%v",
				headMismatch, tailMismatch, len(result) != len(largeValue))
		}
	}
}

func testCollisionHandling(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		mustSet(t, database, key, []byte(fmt.Sprintf("value-%d", i)))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := mustGet(t, database, key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s",
				key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		key := fmt.Sprintf("%s%d", prefix, i)
		if err := database.Delete([]byte(key)); err != nil {
			t.Fatalf("Delete(%s) failed: %v", key, err)
		}
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists := mustGet(t, database, key)

		if i%2 == 0 {
			if exists {
				t.Errorf("Key %s should be deleted", key)
			}
		} else {
			if !exists {
				t.Errorf("Key %s should still exist", key)
			}
		}
	}
}

func testConcurrentWriters(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureIterate)

	numWorkers := 8
	keysPerWorker := 250

	var (
		wg         sync.WaitGroup
		errorCount atomic.Int32
	)
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				key := []byte(fmt.Sprintf("worker-%d-key-%d", workerId, i))
				if err := database.Set(key, key); err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel writes", n)
	}

	count := 0
	err := database.Iterate(func(key, value []byte) error {
		if !bytes.Equal(key, value) {
			t.Errorf("Expected value %s, got %s", key, value)
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if count != numWorkers*keysPerWorker {
		t.Errorf("Expected %d entries, got %d", numWorkers*keysPerWorker, count)
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			valueSize := 64
			if i%10 == 0 {
				valueSize = 1024
			}
			value = make([]byte, valueSize)
			for j := 0; j < valueSize; j++ {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	allKeys := make(map[string]bool)
	for _, op := range operations {
		allKeys[op.key] = true
	}

	numWorkers := 8
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var errorCount atomic.Int32

	opsPerWorker := numOperations / numWorkers

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				var err error
				switch op.op {
				case "set":
					err = database.Set([]byte(op.key), op.value)
				case "get":
					_, _, err = database.Get([]byte(op.key))
				case "delete":
					err = database.Delete([]byte(op.key))
				}
				if err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel operations", n)
	}

	// the store is quiescent now, two passes must agree
	first := make(map[string][]byte)
	for key := range allKeys {
		if value, exists := mustGet(t, database, key); exists {
			first[key] = value
		}
	}

	for key := range allKeys {
		value, exists := mustGet(t, database, key)
		expected, existed := first[key]
		if exists != existed {
			t.Errorf("Consistency error: Key %s existence changed between passes", key)
			continue
		}
		if exists && !bytes.Equal(value, expected) {
			t.Errorf("Value mismatch for key %s between verification passes", key)
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected DbType to be set")
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Feature %s listed in info but not supported", f)
		}
	}
	if info.SizeBytes < 0 {
		t.Errorf("Expected SizeBytes >= 0, got %d", info.SizeBytes)
	}
}
