package seqbank

import (
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Metrics counts ingestion events. The counters can be written in the
// Prometheus text format, e.g. to a textfile collector.
type Metrics struct {
	set *vm.Set

	recordsAdded   *vm.Counter
	recordsSkipped *vm.Counter
	filesAdded     *vm.Counter
	filesFailed    *vm.Counter
	urlsAdded      *vm.Counter
	urlsSkipped    *vm.Counter
	urlsFailed     *vm.Counter
	fileDuration   *vm.Histogram
}

// NewMetrics creates a fresh, unregistered set of counters.
func NewMetrics() *Metrics {
	set := vm.NewSet()
	return &Metrics{
		set:            set,
		recordsAdded:   set.NewCounter(`seqbank_records_total{result="added"}`),
		recordsSkipped: set.NewCounter(`seqbank_records_total{result="filtered"}`),
		filesAdded:     set.NewCounter(`seqbank_files_total{result="added"}`),
		filesFailed:    set.NewCounter(`seqbank_files_total{result="failed"}`),
		urlsAdded:      set.NewCounter(`seqbank_urls_total{result="added"}`),
		urlsSkipped:    set.NewCounter(`seqbank_urls_total{result="already_processed"}`),
		urlsFailed:     set.NewCounter(`seqbank_urls_total{result="failed"}`),
		fileDuration:   set.NewHistogram(`seqbank_file_duration_seconds`),
	}
}

func (m *Metrics) observeFile(res FileResult, err error, start time.Time) {
	m.recordsAdded.Add(res.Added)
	m.recordsSkipped.Add(res.Skipped)
	if err != nil {
		m.filesFailed.Inc()
		return
	}
	m.filesAdded.Inc()
	m.fileDuration.UpdateDuration(start)
}

func (m *Metrics) observeURL(status URLStatus) {
	switch status {
	case URLAdded:
		m.urlsAdded.Inc()
	case URLAlreadyProcessed:
		m.urlsSkipped.Inc()
	case URLFailed:
		m.urlsFailed.Inc()
	}
}

// RecordsAdded returns the number of records written so far.
func (m *Metrics) RecordsAdded() uint64 {
	return m.recordsAdded.Get()
}

// WritePrometheus writes all counters in the Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
