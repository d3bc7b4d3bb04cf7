package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/taylorsim/internal/analysis"
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/export"
)

var systemFilter string

func listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), systemFilter)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSYSTEM\tMODE\tCREATED\tT END\tOUTCOME\tSTEPS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6g\t%s\t%d\n",
					r.ID, r.System, r.Mode, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.TEnd, r.Outcome, r.Steps)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&systemFilter, "system", "", "only list runs of this system")
	return cmd
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run:       %s\n", meta.ID)
			fmt.Printf("system:    %s\n", meta.System)
			fmt.Printf("mode:      %s\n", meta.Mode)
			fmt.Printf("created:   %s\n", meta.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("span:      [%g, %.17g]\n", meta.T0, meta.TEnd)
			fmt.Printf("tolerance: %g\n", meta.Tolerance)
			fmt.Printf("outcome:   %s\n", meta.Outcome)
			fmt.Printf("steps:     %d (h in [%.3e, %.3e])\n", meta.Steps, meta.MinH, meta.MaxH)
			for _, k := range sortedKeys(meta.Params) {
				fmt.Printf("param:     %s = %g\n", k, meta.Params[k])
			}
			for _, k := range sortedKeys(meta.Events) {
				fmt.Printf("event:     %s x%d\n", k, len(meta.Events[k]))
			}
			for _, k := range sortedKeys(meta.Metrics) {
				fmt.Printf("metric:    %s = %.6g\n", k, meta.Metrics[k])
			}
			return nil
		},
	}
}

func loadTrajectory(id string) (times []float64, states [][]float64, err error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()
	times, states, err = st.LoadStates(id)
	if err == nil && len(states) == 0 {
		err = fmt.Errorf("run %s has no samples", id)
	}
	return times, states, err
}

func column(states [][]float64, j int) []float64 {
	out := make([]float64, len(states))
	for i, x := range states {
		out[i] = x[j]
	}
	return out
}

func plotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot each state component against sample index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times, states, err := loadTrajectory(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run: %s, %d samples, t in [%g, %g]\n\n", args[0], len(states), times[0], times[len(times)-1])
			for j := 0; j < min(len(states[0]), 6); j++ {
				fmt.Println(asciigraph.Plot(column(states, j),
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(fmt.Sprintf("x%d", j)),
				))
				fmt.Println()
			}
			return nil
		},
	}
}

func phaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot a phase portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, states, err := loadTrajectory(args[0])
			if err != nil {
				return err
			}
			rows := make([]dynamo.State, len(states))
			for i, x := range states {
				rows[i] = x
			}
			portrait := analysis.PhasePortraitFromStates(rows, xAxis, yAxis)
			if portrait == nil {
				return fmt.Errorf("%w: run has %d components", dynamo.ErrDimensionMismatch, len(states[0]))
			}
			fmt.Printf("x%d vs x%d\n\n", yAxis, xAxis)
			fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 24))
			return nil
		},
	}
	cmd.Flags().IntVar(&xAxis, "x", 0, "horizontal state component")
	cmd.Flags().IntVar(&yAxis, "y", 1, "vertical state component")
	return cmd
}

// uniformStep returns the sample spacing of times when it is constant.
func uniformStep(times []float64) (float64, bool) {
	if len(times) < 3 {
		return 0, false
	}
	dt := times[1] - times[0]
	for i := 2; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-dt) > 1e-9*math.Abs(dt) {
			return 0, false
		}
	}
	return dt, dt != 0
}

func analyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a grid run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times, states, err := loadTrajectory(args[0])
			if err != nil {
				return err
			}
			dt, ok := uniformStep(times)
			if !ok {
				return fmt.Errorf("run %s is not evenly sampled; store it with --mode grid", args[0])
			}

			fmt.Printf("run: %s, %d samples every %g\n\n", args[0], len(times), dt)
			for j := range states[0] {
				data := column(states, j)
				f := analysis.DominantFrequency(data, dt)
				period := math.Inf(1)
				if f > 0 {
					period = 1 / f
				}
				fmt.Printf("x%d: dominant frequency %.6g (period %.6g)\n", j, f, period)
				ps := analysis.PowerSpectrum(data)
				fmt.Println(asciigraph.Plot(ps,
					asciigraph.Height(6),
					asciigraph.Width(70),
					asciigraph.Caption(fmt.Sprintf("x%d power spectrum", j)),
				))
				fmt.Println()
			}
			return nil
		},
	}
}

func exportCSVCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id] [path]",
		Short: "export a run's trajectory as csv (stdout by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.ExportCSV(args[0], outputPath(args))
		},
	}
}

func exportJSONCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export a run as json (stdout by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.ExportJSON(args[0], outputPath(args))
		},
	}
}

func outputPath(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "-"
}

func exportSVGCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-svg [run_id] [path]",
		Short: "export a run's phase portrait as svg (stdout by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, states, err := loadTrajectory(args[0])
			if err != nil {
				return err
			}
			rows := make([]dynamo.State, len(states))
			for i, x := range states {
				rows[i] = x
			}
			portrait := analysis.PhasePortraitFromStates(rows, xAxis, yAxis)
			if portrait == nil {
				return fmt.Errorf("%w: run has %d components", dynamo.ErrDimensionMismatch, len(states[0]))
			}

			out := os.Stdout
			if path := outputPath(args); path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return export.PortraitSVG(out, portrait, 800, 600, "#00ff88")
		},
	}
	cmd.Flags().IntVar(&xAxis, "x", 0, "horizontal state component")
	cmd.Flags().IntVar(&yAxis, "y", 1, "vertical state component")
	return cmd
}
