package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/earthwork/internal/core/usecases"
	"github.com/samirrijal/earthwork/internal/pkg/config"
	"github.com/samirrijal/earthwork/internal/pkg/logging"
)

const version = "0.1.0"

type options struct {
	file     string
	output   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "earthworkctl",
		Short: "Cut and fill volumes for a polygonal site",
		Long: `earthworkctl - offline earthwork calculator

Reads the same JSON bodies the HTTP API accepts and prints the result.
Engine limits come from config.yaml or EARTHWORK_* variables.

Examples:
  earthworkctl validate --file site.json
  earthworkctl sample --file sample-request.json --output table
  earthworkctl calculate --file calculate-request.json
  earthworkctl calculate --file tin-request.json --remote nats://localhost:4222`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.logLevel, "text")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "-", "request JSON file, - for stdin")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newValidateCmd(opts),
		newSampleCmd(opts),
		newCalculateCmd(opts),
		newBatchCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of earthworkctl",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "earthworkctl v%s\n", version)
			},
		},
	)
	return root
}

// newService builds an in-process engine with configured limits.
func newService() (*usecases.EarthworkService, *config.Config, error) {
	cfg, err := config.Load("earthworkctl")
	if err != nil {
		return nil, nil, err
	}
	return usecases.NewEarthworkService(cfg.Engine, nil, nil), cfg, nil
}

func readInput(cmd *cobra.Command, opts *options) ([]byte, error) {
	if opts.file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.file, err)
	}
	return data, nil
}

func decodeInput(cmd *cobra.Command, opts *options, v any) error {
	data, err := readInput(cmd, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", opts.file, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
