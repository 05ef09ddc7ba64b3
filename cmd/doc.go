// Package cmd implements the command-line interface of seqbank.
//
// The package is organized into several subpackages:
//
//   - bank: Commands that work on a bank (add, url, refseq, dfam, export, get, ...)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through an environment variable of the form
// SEQBANK_<FLAG> (e.g. SEQBANK_LOG_LEVEL=debug), which is read from .env and
// .env.local as well.
//
// See seqbank -help for a list of all commands.
package cmd
