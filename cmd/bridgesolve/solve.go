package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/behrlich/bridge-solver/internal/hostapi"
)

func newSolveCmd(state *rootState) *cobra.Command {
	var north, south, west, east, declarer, strain string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a single fully known deal double-dummy (solve_deal)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			oracle, err := state.dialOracle()
			if err != nil {
				return err
			}
			defer oracle.Close()

			tricks, err := hostapi.SolveDeal(hostapi.DealSpec{
				North: north, South: south, West: west, East: east,
			}, declarer, strain, oracle)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", tricks)
			return nil
		},
	}

	cmd.Flags().StringVar(&north, "north", "", "North's hand")
	cmd.Flags().StringVar(&south, "south", "", "South's hand")
	cmd.Flags().StringVar(&west, "west", "", "West's hand")
	cmd.Flags().StringVar(&east, "east", "", "East's hand")
	cmd.Flags().StringVar(&declarer, "declarer", "", "declarer (W/N/E/S)")
	cmd.Flags().StringVar(&strain, "strain", "", "strain (C/D/H/S/N)")
	for _, name := range []string{"north", "south", "west", "east", "declarer", "strain"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}
