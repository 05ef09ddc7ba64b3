// Package bank holds the commands that open a bank. Each command opens the
// bank named by its first argument, read-only unless it writes, and closes it
// before returning.
package bank
