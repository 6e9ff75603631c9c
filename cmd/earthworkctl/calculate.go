package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/earthwork/internal/adapters/nats"
	"github.com/samirrijal/earthwork/internal/core/domain"
)

func newCalculateCmd(opts *options) *cobra.Command {
	var (
		remote  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute cut and fill volumes",
		Long: `Compute cut and fill. A request with calculation_method "grid" or "tin"
runs over interpolated surfaces; otherwise original_height and target_height
apply uniformly (grid_average).

With --remote the job is sent to a worker over NATS instead of running
in-process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts)
			if err != nil {
				return err
			}
			job, err := parseJob(data)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var res *domain.VolumeResult
			if remote != "" {
				res, err = calculateRemote(ctx, remote, job)
			} else {
				res, err = calculateLocal(ctx, job)
			}
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, res)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "NATS URL of a calculation worker")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "calculation timeout")
	return cmd
}

// parseJob picks the request type from the presence of calculation_method.
func parseJob(data []byte) (domain.CalculationJob, error) {
	var head struct {
		Method domain.Method `json:"calculation_method"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return domain.CalculationJob{}, fmt.Errorf("decode request: %w", err)
	}
	job := domain.CalculationJob{ID: uuid.NewString()}
	if head.Method == "" || head.Method == domain.MethodGridAverage {
		job.Uniform = &domain.UniformRequest{}
		return job, json.Unmarshal(data, job.Uniform)
	}
	job.Surface = &domain.SurfaceRequest{}
	return job, json.Unmarshal(data, job.Surface)
}

func calculateLocal(ctx context.Context, job domain.CalculationJob) (*domain.VolumeResult, error) {
	svc, _, err := newService()
	if err != nil {
		return nil, err
	}
	if job.Uniform != nil {
		return svc.Calculate(ctx, *job.Uniform)
	}
	return svc.CalculateTIN(ctx, *job.Surface)
}

func calculateRemote(ctx context.Context, url string, job domain.CalculationJob) (*domain.VolumeResult, error) {
	conn, err := natsadapter.Connect(url, "earthworkctl")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	reply, err := natsadapter.RequestCalculation(ctx, conn, job)
	if err != nil {
		return nil, err
	}
	if reply.Error != nil {
		return nil, &domain.Error{Kind: domain.Kind(reply.Error.Code), Reason: reply.Error.Reason, Message: reply.Error.Message}
	}
	if reply.Result == nil {
		return nil, errors.New("worker returned neither a result nor an error")
	}
	return reply.Result, nil
}

func printResult(out io.Writer, format string, res *domain.VolumeResult) error {
	if format == "json" {
		return writeJSON(out, res)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Method:\t%s\n", res.Method)
	fmt.Fprintf(w, "Area:\t%.2f m²\n", res.Area)
	fmt.Fprintf(w, "Cut:\t%.2f %s\n", res.CutVolume, res.Unit)
	fmt.Fprintf(w, "Fill:\t%.2f %s\n", res.FillVolume, res.Unit)
	fmt.Fprintf(w, "Net:\t%.2f %s\n", res.NetVolume, res.Unit)
	fmt.Fprintf(w, "Cells:\t%d\n", res.CellCount)
	if len(res.Cells) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "#\tArea (m²)\tOriginal (m)\tTarget (m)\tCut\tFill")
		for _, c := range res.Cells {
			fmt.Fprintf(w, "%d\t%.2f\t%.3f\t%.3f\t%.3f\t%.3f\n", c.Index, c.Area, c.OriginalMean, c.TargetMean, c.CutVolume, c.FillVolume)
		}
	}
	return w.Flush()
}
