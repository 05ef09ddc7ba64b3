// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A test suite for validating conformance to the KVDB interface contract
//     (value copies, ordered and snapshot iteration, concurrent writers)
//   - benchmark: Performance tests for measuring throughput of common database operations
//
// Tests are skipped when the implementation does not advertise the feature they need,
// so a read-only handle passes the suite by skipping every write test.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyDatabase()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
