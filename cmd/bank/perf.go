package bank

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfCmd = &cobra.Command{
		Use:   "perf [bank]",
		Short: "Performance testing tool for a bank",
		Long:  "Runs parallel add, read, has and delete benchmarks against a bank. All benchmark entries are removed afterwards; use --memory to leave the bank on disk untouched.",
		Args:  cobra.ExactArgs(1),
		RunE:  withBank(db.ReadWrite, runPerf),
	}
	perfKeyPrefix      = "__perf"
	perfLargeSeqSizeKB = 100
	perfNumThreads     = 10
	perfKeySpread      = 100
	perfSkip           = make([]string, 0)
)

func init() {
	key := "skip"
	perfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,numeric)"))
	key = "threads"
	perfCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-seq-size"
	perfCmd.Flags().Int(key, 100, util.WrapString("How long the sequence for the add-large test should be (in K residues)"))
	key = "keys"
	perfCmd.Flags().Int(key, 100, util.WrapString("How many different accessions to use for the tests"))
	key = "csv"
	perfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig() {
	perfLargeSeqSizeKB = viper.GetInt("large-seq-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")
}

func runPerf(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
	processPerfConfig()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Performance testing tool for seqbank")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "Bank: %s (%s)\n", sb.Path(), engineName())
	fmt.Fprintf(out, "Threads: %d\n", perfNumThreads)
	fmt.Fprintln(out)

	smallSeq := seqbank.RawString("ACGTACGTACGTACGT")
	largeSeq := seqbank.RawString(strings.Repeat("ACGT", perfLargeSeqSizeKB*1024/4))

	// setup writes the test accessions (if seq is set) and registers their removal
	setup := func(b *testing.B, name string, seq seqbank.SequenceInput) func(int) string {
		getKey, iter := getKeys(name)
		if seq != nil {
			iter(func(k string) {
				if err := sb.Add(k, seq); err != nil {
					plog.Errorf("(%s) - error adding accession: %v", name, err)
				}
			})
		}
		b.Cleanup(func() {
			iter(func(k string) {
				if err := sb.Delete(k); err != nil {
					plog.Errorf("(%s) - error deleting accession: %v", name, err)
				}
			})
		})
		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		return getKey
	}

	benchmarks := []struct {
		name string
		seed seqbank.SequenceInput
		op   func(key string, counter int) error
	}{
		{"add", nil, func(key string, _ int) error { return sb.Add(key, smallSeq) }},
		{"add-large", nil, func(key string, _ int) error { return sb.Add(key, largeSeq) }},
		{"numeric", smallSeq, func(key string, _ int) error {
			_, err := sb.Numeric(key)
			return err
		}},
		{"has", smallSeq, func(key string, _ int) error {
			sb.Has(key)
			return nil
		}},
		{"has-not", nil, func(key string, _ int) error {
			sb.Has(key + "-missing")
			return nil
		}},
		{"delete", smallSeq, func(key string, _ int) error { return sb.Delete(key) }},
		{"mixed", smallSeq, func(key string, counter int) error {
			switch counter % 4 {
			case 0:
				return sb.Add(key, smallSeq)
			case 1:
				_, err := sb.Numeric(key)
				if err != nil && !sb.Has(key) {
					return nil // deleted concurrently
				}
				return err
			case 2:
				return sb.Delete(key)
			default:
				sb.Has(key)
				return nil
			}
		}},
	}

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}
			getKey := setup(b, bm.name, bm.seed)
			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := bm.op(getKey(counter), counter); err != nil {
						plog.Errorf("(%s) - error: %v", bm.name, err)
					}
					counter++
				}
			})
		})
		results[bm.name] = result
		printResult(cmd, bm.name, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func engineName() string {
	if viper.GetBool("memory") {
		return string(db.ImplMaple)
	}
	return string(db.ImplPebble)
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test accessions and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(cmd *cobra.Command, test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Fprintf(cmd.OutOrStdout(), "%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Engine", "Threads", "LargeSeqSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		skipped := "true"

		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			engineName(),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeSeqSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
