// Package util provides utility components shared by the db engines and the
// seqbank reporting code.
//
// The package contains:
//   - statistics: Stats/DistributionStats summaries and a bucketed Histogram with
//     exponential (value sizes) or linear (sequence lengths) boundaries
//   - functions: FNV-1a hashing used to spread keys across in-memory shards
package util
