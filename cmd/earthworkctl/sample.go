package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

func newSampleCmd(opts *options) *cobra.Command {
	var gridSize float64
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate the sample lattice inside a polygon",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req domain.SampleRequest
			if err := decodeInput(cmd, opts, &req); err != nil {
				return err
			}
			if cmd.Flags().Changed("grid-size") {
				req.GridSize = gridSize
			}
			svc, _, err := newService()
			if err != nil {
				return err
			}
			points, err := svc.GenerateSamplePoints(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				return writeJSON(out, points)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "#\tLongitude\tLatitude\tOriginal (m)\tTarget (m)\t")
			for i, p := range points {
				fmt.Fprintf(w, "%d\t%.7f\t%.7f\t%.3f\t%.3f\t\n", i, p.Longitude, p.Latitude, p.OriginalHeight, p.TargetHeight)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Float64VarP(&gridSize, "grid-size", "g", 0, "lattice spacing in meters (overrides the file)")
	return cmd
}
