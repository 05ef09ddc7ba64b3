// Package fetch downloads remote files into scoped temporary directories.
// Downloader is the seam used by the ingestion pipeline; HTTPDownloader is
// the default implementation and tests substitute their own.
package fetch
