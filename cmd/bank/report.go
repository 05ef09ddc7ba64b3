package bank

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	exportCmd = &cobra.Command{
		Use:   "export [bank] [output]",
		Short: "Writes sequences to a file",
		Long:  "Writes sequences to a file. Without --accessions the whole bank is exported in ascending accession order. An output name ending in .gz is compressed.",
		Args:  cobra.ExactArgs(2),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, args []string) error {
			format, err := util.GetFormat()
			if err != nil {
				return err
			}
			n, err := sb.Export(cmd.Context(), args[0], seqbank.ExportOptions{
				Format:     format,
				Accessions: util.GetFilter("accessions"),
				Workers:    viper.GetInt("workers"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d sequences to %s\n", n, args[0])
			return nil
		}),
	}
	lengthsCmd = &cobra.Command{
		Use:   "lengths [bank]",
		Short: "Prints the length of every sequence",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			lengths, err := sb.Lengths()
			if err != nil {
				return err
			}
			return encode(cmd, lengths)
		}),
	}
	histogramCmd = &cobra.Command{
		Use:   "histogram [bank]",
		Short: "Prints the sequence length distribution",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			report, err := sb.LengthReport(viper.GetInt("bins"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "count=%d, min=%d, max=%d, mean=%.1f, std-dev=%.1f, median=%.0f, p90=%.0f, p99=%.0f\n",
				report.Count, report.Min, report.Max, report.Mean, report.StdDev, report.Median, report.P90, report.P99)
			return report.WriteHistogram(out, viper.GetInt("width"))
		}),
	}
	infoCmd = &cobra.Command{
		Use:   "info [bank]",
		Short: "Prints information about a bank",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			info, err := sb.Store().Info()
			if err != nil {
				return err
			}
			n, err := sb.Len()
			if err != nil {
				return err
			}
			features := make([]string, 0, len(info.SupportedFeatures))
			for _, f := range info.SupportedFeatures {
				features = append(features, f.String())
			}
			return encode(cmd, struct {
				Path      string   `json:"path" yaml:"path"`
				Sequences int      `json:"sequences" yaml:"sequences"`
				Engine    string   `json:"engine" yaml:"engine"`
				Mode      string   `json:"mode" yaml:"mode"`
				SizeBytes int64    `json:"size_bytes" yaml:"size_bytes"`
				Features  []string `json:"features" yaml:"features"`
				Metadata  any      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
			}{sb.Path(), n, string(info.DbType), info.Mode, info.SizeBytes, features, info.Metadata})
		}),
	}
)

func init() {
	key := "format"
	exportCmd.Flags().String(key, "", util.WrapString("Output format (fasta, fastq, tab). Detected from the output name if empty"))
	key = "accessions"
	exportCmd.Flags().String(key, "", util.WrapString("File with one accession per line, exported in file order"))
	key = "workers"
	exportCmd.Flags().Int(key, -1, util.WrapString("Compression threads for .gz output (-1: one per CPU)"))

	for _, c := range []*cobra.Command{lengthsCmd, infoCmd} {
		key = "output"
		c.Flags().StringP(key, "o", "yaml", util.WrapString("Output encoding (yaml, json)"))
	}

	key = "bins"
	histogramCmd.Flags().Int(key, 20, util.WrapString("Number of equal-width buckets"))
	key = "width"
	histogramCmd.Flags().Int(key, 50, util.WrapString("Width of the longest bar in characters"))
}

// encode writes v in the encoding selected by --output
func encode(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	switch viper.GetString("output") {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output encoding %s", viper.GetString("output"))
	}
}
