package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/behrlich/bridge-solver/internal/hostapi"
)

func buildProblemFlags(cmd *cobra.Command) (north, south, strain *string, target *int, wests *[]string) {
	north = cmd.Flags().String("north", "", "North's hand")
	south = cmd.Flags().String("south", "", "South's hand")
	strain = cmd.Flags().String("strain", "", "strain (C/D/H/S/N)")
	target = cmd.Flags().Int("target", 0, "tricks declarer's side must reach")
	wests = cmd.Flags().StringArray("west", nil, "one hypothesized West hand (repeatable, one per did)")
	for _, name := range []string{"north", "south", "strain", "target", "west"} {
		cmd.MarkFlagRequired(name)
	}
	return
}

func newAnSolveCmd(state *rootState) *cobra.Command {
	var declarer, plays string
	var dids []int

	cmd := &cobra.Command{
		Use:   "an-solve",
		Short: "Evaluate whether every hypothesized layout can reach target (ansolver_eval)",
	}
	north, south, strain, target, wests := buildProblemFlags(cmd)
	cmd.Flags().StringVar(&declarer, "declarer", "", "declarer (W/N/E/S)")
	cmd.Flags().StringVar(&plays, "plays", "", "compressed card list already played")
	cmd.Flags().IntSliceVar(&dids, "did", nil, "restrict to this did (repeatable, default: all)")
	cmd.MarkFlagRequired("declarer")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		oracle, err := state.dialOracle()
		if err != nil {
			return err
		}
		defer oracle.Close()

		p, err := hostapi.NewProblem(*north, *south, *strain, *target, *wests)
		if err != nil {
			return err
		}
		solver := hostapi.NewANSolver(p, oracle)
		ok, err := hostapi.ANSolverEval(solver, declarer, plays, dids)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%t\n", ok)
		return nil
	}
	return cmd
}

func newFillTTCmd(state *rootState) *cobra.Command {
	var declarer, plays, out string

	cmd := &cobra.Command{
		Use:   "fill-tt",
		Short: "Populate a solver's transposition table and persist it (ansolver_fill_tt + write_to_file)",
	}
	north, south, strain, target, wests := buildProblemFlags(cmd)
	cmd.Flags().StringVar(&declarer, "declarer", "", "declarer (W/N/E/S)")
	cmd.Flags().StringVar(&plays, "plays", "", "compressed card list to start filling from")
	cmd.Flags().StringVar(&out, "out", "", "path to write the populated transposition table to")
	cmd.MarkFlagRequired("declarer")
	cmd.MarkFlagRequired("out")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		oracle, err := state.dialOracle()
		if err != nil {
			return err
		}
		defer oracle.Close()

		p, err := hostapi.NewProblem(*north, *south, *strain, *target, *wests)
		if err != nil {
			return err
		}
		solver := hostapi.NewANSolver(p, oracle)
		if err := hostapi.ANSolverFillTT(solver, declarer, plays); err != nil {
			return err
		}
		if err := hostapi.ANSolverWriteToFile(solver, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	}
	return cmd
}
