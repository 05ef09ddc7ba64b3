package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and maps SEQBANK_* environment variables onto flags
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("seqbank")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Flags
// --------------------------------------------------------------------------

// SetupBankFlags adds the flags every command that opens a bank understands
func SetupBankFlags(cmd *cobra.Command) {
	key := "memory"
	cmd.PersistentFlags().Bool(key, false, WrapString("Keep the bank in memory instead of opening it on disk (dry run, nothing is persisted)"))

	key = "progress"
	cmd.PersistentFlags().Bool(key, false, WrapString("Show progress bars on stderr"))

	key = "metrics-file"
	cmd.PersistentFlags().String(key, "", WrapString("Write ingestion counters in the Prometheus text format to this file when the command ends"))
}

// SetupIngestFlags adds the flags shared by the ingestion commands
func SetupIngestFlags(cmd *cobra.Command) {
	key := "format"
	cmd.Flags().String(key, "", WrapString("Input format (fasta, fastq, genbank, embl, nexus, tab). Detected from the file extension if empty"))

	key = "workers"
	cmd.Flags().Int(key, -1, WrapString("Number of files or URLs processed in parallel (-1: one per CPU)"))

	key = "max"
	cmd.Flags().Int(key, 0, WrapString("Process at most this many new files or URLs (0: no limit)"))
}

// --------------------------------------------------------------------------
// Config access
// --------------------------------------------------------------------------

// GetFormat returns the --format flag, empty if the format should be detected
func GetFormat() (seqio.Format, error) {
	return seqio.ParseFormat(viper.GetString("format"))
}

// GetFilter returns the accession file given by key as a filter spec, nil if unset
func GetFilter(key string) filter.Spec {
	path := viper.GetString(key)
	if path == "" {
		return nil
	}
	return filter.File(path)
}

// GetBatchOptions collects the batch flags
func GetBatchOptions() (seqbank.BatchOptions, error) {
	format, err := GetFormat()
	if err != nil {
		return seqbank.BatchOptions{}, err
	}
	return seqbank.BatchOptions{
		Max:     viper.GetInt("max"),
		Format:  format,
		Force:   viper.GetBool("force"),
		Workers: viper.GetInt("workers"),
		TmpDir:  viper.GetString("tmp-dir"),
		Filter:  GetFilter("filter"),
	}, nil
}

// OpenBank opens the bank at path with the configured options
func OpenBank(path string, mode db.Mode) (*seqbank.SeqBank, error) {
	return seqbank.Open(path, mode, &seqbank.Options{
		Memory:   viper.GetBool("memory"),
		Progress: viper.GetBool("progress"),
	})
}

// WriteMetrics writes the counters of sb to --metrics-file if it is set
func WriteMetrics(sb *seqbank.SeqBank) error {
	path := viper.GetString("metrics-file")
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	sb.Metrics().WritePrometheus(f)
	return f.Close()
}
