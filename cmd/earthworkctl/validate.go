package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a polygon and print its planar area",
		Long: `Validate a polygon given as a coordinate list or as an object with
polygon_coordinates. Exits non-zero when the polygon is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts)
			if err != nil {
				return err
			}
			points, err := parsePolygon(data)
			if err != nil {
				return err
			}
			svc, _, err := newService()
			if err != nil {
				return err
			}
			res, err := svc.Validate(cmd.Context(), points)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				if err := writeJSON(out, res); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Valid:\t%v\n", res.Valid)
				if res.Reason != "" {
					fmt.Fprintf(w, "Reason:\t%s\n", res.Reason)
				}
				fmt.Fprintf(w, "Message:\t%s\n", res.Message)
				if res.Area != nil {
					fmt.Fprintf(w, "Area:\t%.2f %s\n", *res.Area, res.Unit)
				}
				w.Flush()
			}
			if !res.Valid {
				return fmt.Errorf("invalid polygon: %s", res.Reason)
			}
			return nil
		},
	}
}

func parsePolygon(data []byte) ([]domain.GeoPoint, error) {
	data = bytes.TrimSpace(data)
	var points []domain.GeoPoint
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Polygon []domain.GeoPoint `json:"polygon_coordinates"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		return wrapped.Polygon, nil
	}
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("decode polygon: %w", err)
	}
	return points, nil
}
