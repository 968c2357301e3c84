package main

import (
	"github.com/spf13/cobra"

	"github.com/behrlich/bridge-solver/internal/config"
)

// rootState carries flag-derived configuration shared by every
// subcommand's RunE, populated by the root command's PersistentPreRunE.
type rootState struct {
	cfg *config.Config

	oracleCmd  string
	oracleArgs []string
}

func newRootCmd() *cobra.Command {
	state := &rootState{}

	root := &cobra.Command{
		Use:          "bridgesolve",
		Short:        "Double-dummy declarer-play analysis",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			state.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().Int("thread-budget", config.DefaultThreadBudget, "cores the double-dummy oracle may use")
	root.PersistentFlags().Int("max-boards", config.DefaultMaxBoards, "per-batch board cap stored in the config (not read by any subcommand)")
	root.PersistentFlags().StringVar(&state.oracleCmd, "oracle-cmd", "", "path to the external double-dummy solver subprocess")
	root.PersistentFlags().StringArrayVar(&state.oracleArgs, "oracle-arg", nil, "extra argument passed to --oracle-cmd (repeatable)")

	root.AddCommand(
		newSolveCmd(state),
		newAnSolveCmd(state),
		newFillTTCmd(state),
		newDumpCmd(state),
		newLoadCmd(state),
	)
	return root
}
