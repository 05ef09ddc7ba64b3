package bank

import (
	"fmt"

	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/fetch"
	"github.com/ValentinKolb/seqbank/lib/remote"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [bank] [file...]",
		Short: "Adds the records of sequence files",
		Args:  cobra.MinimumNArgs(2),
		RunE: withBank(db.ReadWrite, func(cmd *cobra.Command, sb *seqbank.SeqBank, files []string) error {
			opts, err := util.GetBatchOptions()
			if err != nil {
				return err
			}

			if len(files) == 1 {
				res, err := sb.AddFile(cmd.Context(), files[0], seqbank.FileOptions{
					Format:   opts.Format,
					Filter:   opts.Filter,
					Progress: viper.GetBool("progress"),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "read=%d, added=%d, skipped=%d\n", res.Read, res.Added, res.Skipped)
				return nil
			}

			report, err := sb.AddFiles(cmd.Context(), files, opts)
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		}),
	}
	urlCmd = &cobra.Command{
		Use:   "url [bank] [url...]",
		Short: "Downloads and adds sequence files",
		Long:  "Downloads and adds sequence files. URLs that were added completely before are skipped unless --force is given.",
		Args:  cobra.MinimumNArgs(2),
		RunE: withBank(db.ReadWrite, func(cmd *cobra.Command, sb *seqbank.SeqBank, urls []string) error {
			opts, err := util.GetBatchOptions()
			if err != nil {
				return err
			}
			return printReport(cmd, sb.AddURLs(cmd.Context(), urls, opts))
		}),
	}
	refseqCmd = &cobra.Command{
		Use:   "refseq [bank]",
		Short: "Adds the complete RefSeq genomic release",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadWrite, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			opts, err := util.GetBatchOptions()
			if err != nil {
				return err
			}
			opts.Format = seqio.FormatFASTA

			urls, err := remote.RefSeqURLs(cmd.Context(), fetch.NewHTTPDownloader(), opts.TmpDir)
			if err != nil {
				return err
			}
			plog.Infof("found %d files in the RefSeq release", len(urls))
			return printReport(cmd, sb.AddURLs(cmd.Context(), urls, opts))
		}),
	}
	dfamCmd = &cobra.Command{
		Use:   "dfam [bank]",
		Short: "Adds the consensus sequences of a Dfam release",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadWrite, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			url := remote.DfamEMBLURL(viper.GetBool("curated"), viper.GetString("release"))
			res := sb.AddArchive(cmd.Context(), url, remote.DfamEMBLOpener(), seqbank.ArchiveOptions{
				Force:  viper.GetBool("force"),
				TmpDir: viper.GetString("tmp-dir"),
			})
			if res.Status == seqbank.URLFailed {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "url=%s, status=%s, added=%d\n", url, res.Status, res.Records.Added)
			return nil
		}),
	}
)

func init() {
	util.SetupIngestFlags(addCmd)
	key := "filter"
	addCmd.Flags().String(key, "", util.WrapString("File with one accession per line, only these records are added"))

	util.SetupIngestFlags(urlCmd)
	util.SetupIngestFlags(refseqCmd)
	for _, c := range []*cobra.Command{urlCmd, refseqCmd, dfamCmd} {
		key = "force"
		c.Flags().Bool(key, false, util.WrapString("Add URLs even if they were added before"))
	}
	for _, c := range []*cobra.Command{urlCmd, refseqCmd, dfamCmd} {
		key = "tmp-dir"
		c.Flags().String(key, "", util.WrapString("Directory for downloads (system default if empty)"))
	}

	key = "curated"
	dfamCmd.Flags().Bool(key, true, util.WrapString("Only add curated families"))
	key = "release"
	dfamCmd.Flags().String(key, "current", util.WrapString("Dfam release to add (e.g. 3.8)"))
}

func printReport(cmd *cobra.Command, report seqbank.BatchReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run=%s, scheduled=%d, succeeded=%d, failed=%d, skipped=%d, cancelled=%d\n",
		report.RunID, report.Scheduled, report.Succeeded, report.Failed, report.Skipped, report.Cancelled)
	for _, f := range report.Failures {
		fmt.Fprintf(out, "failed: %s: %v\n", f.Item, f.Err)
	}
	return cmd.Context().Err()
}
