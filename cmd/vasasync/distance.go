package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iudanet/vasasync/internal/position"
)

func newDistanceCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Print the great-circle distance between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, arg := range args {
				f, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", arg, err)
				}
				v[i] = f
			}

			a := position.Coordinates{Latitude: v[0], Longitude: v[1]}
			b := position.Coordinates{Latitude: v[2], Longitude: v[3]}
			d := position.DistanceMeters(a, b)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%.1f m\n", d)
			if position.IsInProximity(a, b, threshold) {
				fmt.Fprintf(out, "within %.0f m\n", threshold)
			} else {
				fmt.Fprintf(out, "farther than %.0f m\n", threshold)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", position.DefaultProximityThreshold, "proximity threshold in meters")
	return cmd
}
