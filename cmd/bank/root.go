package bank

import (
	"github.com/ValentinKolb/seqbank/cmd/util"
	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/seqbank"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	plog = logger.GetLogger("cli")

	// Commands are all commands that work on a bank. The first argument of
	// each of them is the path of the bank.
	Commands []*cobra.Command
)

func init() {
	Commands = []*cobra.Command{
		addCmd, urlCmd, refseqCmd, dfamCmd,
		exportCmd, lsCmd, countCmd, getCmd, hasCmd, deleteCmd, missingCmd, copyCmd,
		lengthsCmd, histogramCmd, infoCmd, perfCmd,
	}
	for _, c := range Commands {
		util.SetupBankFlags(c)
	}
}

// bankFunc is the body of a command that works on an open bank.
// args no longer contains the bank path.
type bankFunc func(cmd *cobra.Command, sb *seqbank.SeqBank, args []string) error

// withBank opens the bank named by the first argument, runs fn and closes
// the bank again. The metrics file is written even if fn fails.
func withBank(mode db.Mode, fn bankFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		sb, err := util.OpenBank(args[0], mode)
		if err != nil {
			return err
		}
		defer func() {
			if mErr := util.WriteMetrics(sb); mErr != nil && err == nil {
				err = mErr
			}
			if cErr := sb.Close(); cErr != nil {
				plog.Warningf("failed to close %s: %v", sb.Path(), cErr)
			}
		}()
		return fn(cmd, sb, args[1:])
	}
}
