package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/behrlich/bridge-solver/internal/hostapi"
)

func newDumpCmd(state *rootState) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print diagnostics for a persisted solver's transposition table (read_from_file)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			oracle, err := state.dialOracle()
			if err != nil {
				return err
			}
			defer oracle.Close()

			solver, err := hostapi.ANSolverReadFromFile(in, oracle)
			if err != nil {
				return err
			}

			stats := solver.GetStats()
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%d\n", k, stats[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "path to a file written by fill-tt")
	cmd.MarkFlagRequired("in")
	return cmd
}

func newLoadCmd(state *rootState) *cobra.Command {
	var in, declarer, plays string
	var dids []int

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a persisted solver and evaluate a line against it (read_from_file + ansolver_eval)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			oracle, err := state.dialOracle()
			if err != nil {
				return err
			}
			defer oracle.Close()

			solver, err := hostapi.ANSolverReadFromFile(in, oracle)
			if err != nil {
				return err
			}
			ok, err := hostapi.ANSolverEval(solver, declarer, plays, dids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%t\n", ok)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "path to a file written by fill-tt")
	cmd.Flags().StringVar(&declarer, "declarer", "", "declarer (W/N/E/S)")
	cmd.Flags().StringVar(&plays, "plays", "", "compressed card list already played")
	cmd.Flags().IntSliceVar(&dids, "did", nil, "restrict to this did (repeatable, default: all)")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("declarer")
	return cmd
}
