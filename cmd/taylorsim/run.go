package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"

	"github.com/san-kum/taylorsim/internal/analysis"
	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/experiment"
	"github.com/san-kum/taylorsim/internal/export"
	"github.com/san-kum/taylorsim/internal/systems"
	"github.com/san-kum/taylorsim/internal/taylor"
	"github.com/san-kum/taylorsim/internal/viz"
)

var (
	stepCount    int
	backward     bool
	ensembleSize int
	spread       float64
	seed         int64
	frameDT      float64
	crossIdx     int
	crossValue   float64
	lyapD0       float64
	lyapInterval float64
	lyapCount    int
	svgPath      string

	progressEvery int
	fromRun       string
)

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [system]",
		Short: "propagate a system and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPropagation,
	}
	addConfigFlags(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().IntVar(&progressEvery, "progress-every", 1000, "log a debug line every n steps (0 disables)")
	cmd.Flags().StringVar(&fromRun, "from", "", "resume from the final integrator state of a stored run")
	return cmd
}

func resumeFrom(exp *experiment.Experiment, id string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	if meta.System != exp.Config().System {
		return fmt.Errorf("run %s is a %s run, not %s", id, meta.System, exp.Config().System)
	}
	snap, err := st.LoadSnapshot(id)
	if err != nil {
		return err
	}
	if err := exp.Resume(snap); err != nil {
		return err
	}
	fmt.Printf("resuming run %s at t = %.17g\n", id, snap.Time())
	return nil
}

// progressLogger reports every n-th committed step at debug level.
func progressLogger(n int) experiment.Observer {
	count := 0
	return experiment.ObserverFunc(func(x dynamo.State, t, h float64) {
		count++
		if n <= 0 || count%n != 0 {
			return
		}
		level.Debug(logger).Log("msg", "progress", "step", count, "t", t, "h", h, "norm", x.Norm())
	})
}

func runPropagation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if fromRun != "" {
		if err := resumeFrom(exp, fromRun); err != nil {
			return err
		}
	}
	exp.AddObserver(progressLogger(progressEvery))

	fmt.Printf("propagating %s (%s mode, order %d)...\n", cfg.System, cfg.Mode, exp.Integrator().Order())
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	printResult(result)

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		// still record interrupted runs
		id, err := st.Save(context.Background(), cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\nstored in: %s\n", id, filepath.Join(st.Dir(), id))
	}
	return runErr
}

func printResult(r *experiment.Result) {
	fmt.Printf("outcome: %s\n", r.Outcome)
	fmt.Printf("final time: %.17g\n", r.Times[len(r.Times)-1])
	fmt.Printf("steps: %d (h in [%.3e, %.3e])\n", r.Steps, r.MinH, r.MaxH)
	fmt.Printf("elapsed: %v\n", r.Elapsed)
	fmt.Printf("final state: %v\n", []float64(r.States[len(r.States)-1]))

	if len(r.Events) > 0 {
		fmt.Println("\nevents:")
		for _, name := range sortedKeys(r.Events) {
			fmt.Printf("  %s: %d %v\n", name, len(r.Events[name]), r.Events[name])
		}
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(r.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, r.Metrics[name])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step [system]",
		Short: "take single Taylor steps and print each one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, logger)
			if err != nil {
				return err
			}
			ta := exp.Integrator()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tTIME\tH\tOUTCOME\tSTATE")
			fmt.Fprintf(w, "0\t%.12g\t-\t-\t%.10g\n", ta.Time(), []float64(ta.State()))
			for i := 1; i <= stepCount; i++ {
				var (
					out taylor.Outcome
					h   float64
				)
				switch {
				case maxDeltaT > 0:
					limit := maxDeltaT
					if backward {
						limit = -limit
					}
					if out, h, err = ta.StepLimited(limit); err != nil {
						return err
					}
				case backward:
					out, h = ta.StepBackward()
				default:
					out, h = ta.Step()
				}
				fmt.Fprintf(w, "%d\t%.12g\t%.6e\t%s\t%.10g\n", i, ta.Time(), h, out, []float64(ta.State()))
				if _, stopped, _ := out.Event(); stopped || out == taylor.ErrNFState {
					break
				}
			}
			return w.Flush()
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().IntVarP(&stepCount, "steps", "n", 10, "number of steps")
	cmd.Flags().BoolVar(&backward, "backward", false, "step backward in time")
	return cmd
}

func compareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [system] [method...]",
		Short: "compare the Taylor integrator with RK4 and RK45",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			reg := experiment.NewRegistry()
			methods := args[1:]
			if len(methods) == 0 {
				methods = []string{"taylor"}
				for _, m := range reg.ListMethods() {
					if m != "taylor" {
						methods = append(methods, m)
					}
				}
			}

			results, err := reg.Compare(cmd.Context(), cfg, methods)
			if err != nil {
				return err
			}
			fmt.Printf("%s to t=%g, reference %s\n\n", cfg.System, cfg.End(), methods[0])
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tSTEPS\tDEVIATION\tENERGY DRIFT\tELAPSED\tERROR")
			for _, c := range results {
				errStr := "-"
				if c.Err != nil {
					errStr = c.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%v\t%s\n", c.Method, c.Steps, c.Deviation, c.EnergyDrift, c.Elapsed, errStr)
			}
			return w.Flush()
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func ensembleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble [system]",
		Short: "propagate perturbed copies of an initial condition in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			results, err := exp.RunEnsemble(ctx, ensembleSize, spread, seed)
			if results == nil {
				return err
			}
			ref := results[0].Integrator
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MEMBER\tOUTCOME\tSTEPS\tTIME\tDISTANCE\tFINAL STATE")
			for i, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "%d\terror\t-\t-\t-\t%v\n", i, r.Err)
					continue
				}
				dist := math.NaN()
				if ref != nil {
					dist = r.Integrator.State().Sub(ref.State()).Norm()
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%.6g\t%.3e\t%.6g\n", i, r.Result.Outcome, r.Result.Steps,
					r.Integrator.Time(), dist, []float64(r.Integrator.State()))
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
			return err
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().IntVar(&ensembleSize, "n", 8, "ensemble size")
	cmd.Flags().Float64Var(&spread, "spread", 1e-6, "perturbation amplitude")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func liveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [system]",
		Short: "propagate with live terminal visualization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, logger)
			if err != nil {
				return err
			}
			end := math.Inf(1)
			if cmd.Flags().Changed("time") || cmd.Flags().Changed("target") || configFile != "" || preset != "" {
				end = cfg.End()
			}
			m := viz.NewModel(cfg.System, exp.Integrator(), frameDT, end, xAxis, yAxis)
			return viz.Run(m)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().Float64Var(&frameDT, "frame", 0.05, "time propagated per frame")
	cmd.Flags().IntVar(&xAxis, "x", 0, "horizontal state component")
	cmd.Flags().IntVar(&yAxis, "y", 1, "vertical state component")
	return cmd
}

func poincareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poincare [system]",
		Short: "plot a Poincare section located by event detection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, logger)
			if err != nil {
				return err
			}
			ta := exp.Integrator()

			section, err := analysis.GeneratePoincareSection(
				exp.System(), exp.InitialState(), crossIdx, crossValue, xAxis, yAxis, cfg.End()-cfg.T0,
				taylor.WithTime(cfg.T0), taylor.WithTolerance(ta.Tol()), taylor.WithOrder(ta.Order()),
				taylor.WithPars(cfg.Pars...), taylor.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d upward crossings of x%d = %g, plotting x%d vs x%d\n\n",
				cfg.System, len(section.Points), crossIdx, crossValue, yAxis, xAxis)
			fmt.Println(analysis.PoincareSectionToASCII(section, 70, 24))
			if svgPath == "" {
				return nil
			}
			f, err := os.Create(svgPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return export.SectionSVG(f, section, 800, 800, "#ff00ff")
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().IntVar(&crossIdx, "cross", 0, "state component defining the section")
	cmd.Flags().Float64Var(&crossValue, "value", 0, "section level")
	cmd.Flags().StringVar(&svgPath, "svg", "", "also write the section to this svg file")
	cmd.Flags().IntVar(&xAxis, "x", 0, "horizontal state component")
	cmd.Flags().IntVar(&yAxis, "y", 1, "vertical state component")
	return cmd
}

func lyapunovCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, logger)
			if err != nil {
				return err
			}
			ta := exp.Integrator()
			lambda, err := analysis.LyapunovExponent(exp.System(), exp.InitialState(), lyapD0, lyapInterval, lyapCount,
				taylor.WithTime(cfg.T0), taylor.WithTolerance(ta.Tol()), taylor.WithOrder(ta.Order()),
				taylor.WithPars(cfg.Pars...),
			)
			if err != nil {
				return err
			}
			verdict := "regular"
			if lambda > 0.01 {
				verdict = "chaotic"
			}
			fmt.Printf("%s: largest Lyapunov exponent %.6f (%s)\n", cfg.System, lambda, verdict)
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().Float64Var(&lyapD0, "d0", 1e-8, "initial separation")
	cmd.Flags().Float64Var(&lyapInterval, "interval", 1, "renormalization interval")
	cmd.Flags().IntVar(&lyapCount, "intervals", 100, "number of intervals")
	return cmd
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [system]",
		Short: "list systems and their presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := systems.Names()
			if len(args) == 1 {
				names = args
			}
			for _, name := range names {
				presets := config.ListPresets(name)
				if len(presets) == 0 {
					fmt.Printf("%s: (no presets)\n", name)
					continue
				}
				fmt.Printf("%s:\n", name)
				for _, p := range presets {
					c := config.GetPreset(name, p)
					fmt.Printf("  %-16s mode=%s end=%g tol=%g events=%d\n", p, c.Mode, c.End(), c.Tolerance, len(c.Events))
				}
			}
			return nil
		},
	}
}
