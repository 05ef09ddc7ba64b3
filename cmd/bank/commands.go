package bank

import (
	"fmt"

	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	lsCmd = &cobra.Command{
		Use:   "ls [bank]",
		Short: "Lists all accessions",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			out := cmd.OutOrStdout()
			return sb.Items(func(accession string, _ []byte) error {
				_, err := fmt.Fprintln(out, accession)
				return err
			})
		}),
	}
	countCmd = &cobra.Command{
		Use:   "count [bank]",
		Short: "Counts the stored sequences",
		Args:  cobra.ExactArgs(1),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, _ []string) error {
			n, err := sb.Len()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}),
	}
	getCmd = &cobra.Command{
		Use:   "get [bank] [accession...]",
		Short: "Prints sequences",
		Args:  cobra.MinimumNArgs(2),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, accessions []string) error {
			format, err := seqio.ParseFormat(viper.GetString("format"))
			if err != nil {
				return err
			}
			_, err = sb.ExportTo(cmd.Context(), cmd.OutOrStdout(), format, filter.List(accessions))
			return err
		}),
	}
	hasCmd = &cobra.Command{
		Use:   "has [bank] [accession]",
		Short: "Checks if an accession is stored",
		Args:  cobra.ExactArgs(2),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "accession=%s, found=%t\n", args[0], sb.Has(args[0]))
			return nil
		}),
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [bank] [accession...]",
		Short: "Deletes sequences",
		Args:  cobra.MinimumNArgs(2),
		RunE: withBank(db.ReadWrite, func(cmd *cobra.Command, sb *seqbank.SeqBank, accessions []string) error {
			for _, acc := range accessions {
				if err := sb.Delete(acc); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d accessions\n", len(accessions))
			return nil
		}),
	}
	missingCmd = &cobra.Command{
		Use:   "missing [bank] [file]",
		Short: "Prints the accessions of a file that are not stored",
		Long:  "Prints the accessions of a file (one per line) that are not stored in the bank.",
		Args:  cobra.ExactArgs(2),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, args []string) error {
			accessions, err := filter.ReadLines(args[0])
			if err != nil {
				return err
			}
			for _, acc := range sb.Missing(accessions) {
				fmt.Fprintln(cmd.OutOrStdout(), acc)
			}
			return nil
		}),
	}
	copyCmd = &cobra.Command{
		Use:   "copy [bank] [target]",
		Short: "Copies all entries into another bank",
		Args:  cobra.ExactArgs(2),
		RunE: withBank(db.ReadOnly, func(cmd *cobra.Command, sb *seqbank.SeqBank, args []string) error {
			target, err := util.OpenBank(args[0], db.ReadWrite)
			if err != nil {
				return err
			}
			defer target.Close()
			if err := sb.Copy(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %s into %s\n", sb.Path(), target.Path())
			return nil
		}),
	}
)

func init() {
	key := "format"
	getCmd.Flags().String(key, string(seqio.FormatFASTA), util.WrapString("Output format (fasta, fastq, tab)"))
}
