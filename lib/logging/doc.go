// Package logging plugs a compact formatter into dragonboat's logger registry.
// Every package obtains its logger with logger.GetLogger(name); Init installs
// the factory and applies the level from the command line to all of them.
//
// Output format:
//
//	2025/01/02 15:04:05 INFO  | ingest   | added 6 records from genome.fa
package logging
