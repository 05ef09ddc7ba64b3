package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ValentinKolb/seqbank/cmd/bank"
	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "seqbank",
		Short: "accession-keyed sequence store",
		Long: fmt.Sprintf(`seqbank (v%s)

Stores nucleotide sequences by accession in an embedded key-value store,
fills it from sequence files, URLs and bulk releases (RefSeq, Dfam) and
exports them again. Every command takes the path of the bank as its first
argument.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of seqbank",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seqbank v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(bank.Commands...)
	RootCmd.AddCommand(versionCmd)

	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// setup binds the flags of the command that runs to viper and configures logging
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return logging.Init(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// An interrupt cancels the running command, sequences written until then stay.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
