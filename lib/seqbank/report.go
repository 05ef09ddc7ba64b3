package seqbank

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/db/util"
	gometrics "github.com/rcrowley/go-metrics"
)

// Lengths returns the sequence length of every accession in the bank.
func (sb *SeqBank) Lengths() (map[string]int, error) {
	lengths := make(map[string]int)
	err := sb.Items(func(accession string, encoded []byte) error {
		lengths[accession] = len(encoded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lengths, nil
}

// LengthReport describes the length distribution of the sequences in a bank.
type LengthReport struct {
	Count   int64         `json:"count" yaml:"count"`
	Min     int64         `json:"min" yaml:"min"`
	Max     int64         `json:"max" yaml:"max"`
	Mean    float64       `json:"mean" yaml:"mean"`
	StdDev  float64       `json:"std_dev" yaml:"std_dev"`
	Median  float64       `json:"median" yaml:"median"`
	P90     float64       `json:"p90" yaml:"p90"`
	P99     float64       `json:"p99" yaml:"p99"`
	Buckets []util.Bucket `json:"buckets" yaml:"buckets"`
}

// LengthReport summarizes the sequence lengths of the bank with bins
// equal-width buckets between the shortest and the longest sequence.
func (sb *SeqBank) LengthReport(bins int) (LengthReport, error) {
	lengths, err := sb.Lengths()
	if err != nil {
		return LengthReport{}, err
	}
	return newLengthReport(lengths, bins), nil
}

func newLengthReport(lengths map[string]int, bins int) LengthReport {
	if len(lengths) == 0 {
		return LengthReport{}
	}

	// the reservoir holds every sample, so the percentiles are exact
	h := gometrics.NewHistogram(gometrics.NewUniformSample(len(lengths)))
	for _, l := range lengths {
		h.Update(int64(l))
	}
	snap := h.Snapshot()

	buckets := util.NewLinearHistogram(int(snap.Min()), int(snap.Max()), bins)
	for _, l := range lengths {
		buckets.AddSample(l)
	}

	ps := snap.Percentiles([]float64{0.5, 0.9, 0.99})
	return LengthReport{
		Count:   snap.Count(),
		Min:     snap.Min(),
		Max:     snap.Max(),
		Mean:    snap.Mean(),
		StdDev:  snap.StdDev(),
		Median:  ps[0],
		P90:     ps[1],
		P99:     ps[2],
		Buckets: buckets.Buckets(),
	}
}

// WriteHistogram draws the buckets as text bars of at most width characters.
func (r LengthReport) WriteHistogram(w io.Writer, width int) error {
	if width < 1 {
		width = 1
	}
	var peak int64
	for _, b := range r.Buckets {
		peak = max(peak, b.Count)
	}

	for _, b := range r.Buckets {
		bar := 0
		if peak > 0 {
			bar = int(math.Round(float64(b.Count) / float64(peak) * float64(width)))
		}
		upper := fmt.Sprint(b.Upper)
		if b.Upper == math.MaxInt {
			upper = "inf"
		}
		if _, err := fmt.Fprintf(w, "%10d - %-10s | %-*s %d\n", b.Lower, upper, width, strings.Repeat("#", bar), b.Count); err != nil {
			return err
		}
	}
	return nil
}
