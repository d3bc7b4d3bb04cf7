package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/taylorsim/internal/optim"
)

var (
	sweepGrid   []string
	sweepMetric string
)

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "grid search tolerance, order or system parameters for the best metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			names, ranges, err := parseSweepGrid(sweepGrid)
			if err != nil {
				return err
			}
			g, err := optim.NewGridSearch(names, ranges, logger)
			if err != nil {
				return err
			}

			best, all, err := g.Search(cmd.Context(), cfg, sweepMetric)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\tOUTCOME\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
			for _, ev := range all {
				for _, n := range names {
					fmt.Fprintf(w, "%g\t", ev.Params[n])
				}
				if ev.Err != nil {
					fmt.Fprintf(w, "-\t%v\n", ev.Err)
					continue
				}
				fmt.Fprintf(w, "%.6g\t%s\n", ev.Value, ev.Outcome)
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
			if err != nil {
				return err
			}
			fmt.Printf("\nbest: %v -> %s = %.6g\n", best.Params, sweepMetric, best.Value)
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringArrayVar(&sweepGrid, "grid", nil, "axis name=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&sweepMetric, "metric", optim.MetricSteps, "metric to minimise")
	return cmd
}

func parseSweepGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid axis is required")
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, s := range specs {
		name, list, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad --grid %q: want name=v1,v2", s)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad --grid %q: %w", s, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}
