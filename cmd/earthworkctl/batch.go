package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/pkg/config"
	"github.com/samirrijal/earthwork/internal/workflows"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		alternatives []float64
		original     float64
		method       string
		gridSize     float64
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compare target heights for one site on the batch workers",
		Long: `Start a batch workflow on Temporal that evaluates several target heights
for the polygon in --file and reports the most balanced one.

Example:
  earthworkctl batch --file site.json --original 10 --alternatives 9,10,11`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts)
			if err != nil {
				return err
			}
			polygon, err := parsePolygon(data)
			if err != nil {
				return err
			}
			cfg, err := config.Load("earthworkctl")
			if err != nil {
				return err
			}

			c, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
				ID:        "earthwork-batch-" + uuid.NewString(),
				TaskQueue: cfg.Temporal.TaskQueue,
			}, workflows.BatchEarthworkWorkflow, workflows.BatchInput{
				Polygon:        polygon,
				OriginalHeight: original,
				Alternatives:   alternatives,
				Method:         domain.Method(method),
				GridSize:       gridSize,
			})
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}

			var res workflows.BatchResult
			if err := run.Get(cmd.Context(), &res); err != nil {
				return err
			}
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Workflow:\t%s\n", res.ID)
			fmt.Fprintf(w, "Area:\t%.2f m²\n\n", res.Area)
			fmt.Fprintln(w, "Target (m)\tCut\tFill\tNet\t")
			for i, alt := range res.Alternatives {
				mark := ""
				if i == res.Best {
					mark = "<- best"
				}
				if alt.Result == nil {
					fmt.Fprintf(w, "%.3f\terror: %s\t\t\t\n", alt.TargetHeight, alt.Error)
					continue
				}
				fmt.Fprintf(w, "%.3f\t%.2f\t%.2f\t%.2f\t%s\n", alt.TargetHeight, alt.Result.CutVolume, alt.Result.FillVolume, alt.Result.NetVolume, mark)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Float64SliceVar(&alternatives, "alternatives", nil, "target heights to compare (m) [required]")
	cmd.Flags().Float64Var(&original, "original", 0, "existing ground height (m)")
	cmd.Flags().StringVar(&method, "method", "grid_average", "grid_average, grid or tin")
	cmd.Flags().Float64Var(&gridSize, "grid-size", 0, "cell or lattice size (m)")
	_ = cmd.MarkFlagRequired("alternatives")
	return cmd
}
