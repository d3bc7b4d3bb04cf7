package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/storage"
)

var (
	logger = kitlog.NewNopLogger()

	// run configuration flags
	configFile string
	preset     string
	mode       string
	duration   float64
	target     float64
	tolerance  float64
	order      int
	maxDeltaT  float64
	maxSteps   int
	gridPoints int
	initState  []float64
	paramSets  []string
	eventSpecs []string
	noSave     bool

	// plot axes
	xAxis int
	yAxis int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "taylorsim",
		Short:         "adaptive Taylor series integration lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(viper.GetBool("verbose"))
		},
	}

	rootCmd.PersistentFlags().String("data", ".taylorsim", "data directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug records")
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("taylorsim")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		runCommand(),
		stepCommand(),
		listCommand(),
		showCommand(),
		plotCommand(),
		phaseCommand(),
		analyzeCommand(),
		lyapunovCommand(),
		poincareCommand(),
		exportCSVCommand(),
		exportJSONCommand(),
		exportSVGCommand(),
		presetsCommand(),
		compareCommand(),
		ensembleCommand(),
		sweepCommand(),
		liveCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
	if verbose {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowWarn())
}

func openStore() (*storage.Store, error) {
	return storage.Open(viper.GetString("data"))
}

// addConfigFlags registers the flags buildConfig reads.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&mode, "mode", config.ModeFor, "propagation mode: for, until, grid")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration (for mode)")
	f.Float64Var(&target, "target", 0, "final time (until mode), grid stop (grid mode)")
	f.Float64Var(&tolerance, "tol", config.DefaultTolerance, "tolerance")
	f.IntVar(&order, "order", 0, "Taylor order (0 derives it from the tolerance)")
	f.Float64Var(&maxDeltaT, "max-dt", 0, "largest step allowed (0 for none)")
	f.IntVar(&maxSteps, "max-steps", 0, "step budget (0 for none)")
	f.IntVar(&gridPoints, "points", config.DefaultGridPoints, "grid points (grid mode)")
	f.Float64SliceVar(&initState, "state", nil, "initial state")
	f.StringSliceVar(&paramSets, "set", nil, "system parameter name=value")
	f.StringSliceVar(&eventSpecs, "event", nil, "event xN=value[:positive|negative][:terminal]")
}

// buildConfig layers defaults, preset, config file and flags, in that order.
func buildConfig(cmd *cobra.Command, system string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.System = system

	if preset != "" {
		p := config.GetPreset(system, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
		c := *p
		cfg = &c
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if system != "" {
			cfg.System = system
		}
	}

	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = mode
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("target") {
		cfg.Target = target
		cfg.Grid.Stop = target
	}
	if f.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("max-dt") {
		cfg.MaxDeltaT = maxDeltaT
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("points") {
		cfg.Grid.Points = gridPoints
	}
	if f.Changed("state") {
		cfg.InitState = initState
	}
	if len(paramSets) > 0 {
		params := make(map[string]float64, len(cfg.Params)+len(paramSets))
		for k, v := range cfg.Params {
			params[k] = v
		}
		for _, s := range paramSets {
			name, val, ok := strings.Cut(s, "=")
			if !ok {
				return nil, fmt.Errorf("bad --set %q: want name=value", s)
			}
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("bad --set %q: %w", s, err)
			}
			params[name] = v
		}
		cfg.Params = params
	}
	if len(eventSpecs) > 0 {
		cfg.Events = nil
		for _, s := range eventSpecs {
			ev, err := parseEvent(s)
			if err != nil {
				return nil, err
			}
			cfg.Events = append(cfg.Events, ev)
		}
	}
	if cfg.Mode == config.ModeGrid && f.Changed("time") && !f.Changed("target") {
		cfg.Grid.Start = cfg.T0
		cfg.Grid.Stop = cfg.T0 + cfg.Duration
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEvent reads "x2=0.5:negative:terminal".
func parseEvent(s string) (config.EventConfig, error) {
	parts := strings.Split(s, ":")
	lhs, rhs, ok := strings.Cut(parts[0], "=")
	if !ok || !strings.HasPrefix(lhs, "x") {
		return config.EventConfig{}, fmt.Errorf("bad --event %q: want xN=value", s)
	}
	comp, err := strconv.Atoi(lhs[1:])
	if err != nil {
		return config.EventConfig{}, fmt.Errorf("bad --event %q: %w", s, err)
	}
	value, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return config.EventConfig{}, fmt.Errorf("bad --event %q: %w", s, err)
	}

	ev := config.EventConfig{Name: parts[0], Component: comp, Value: value}
	for _, p := range parts[1:] {
		switch p {
		case "positive", "negative", "any":
			ev.Direction = p
		case "terminal":
			ev.Terminal = true
		default:
			return config.EventConfig{}, fmt.Errorf("bad --event %q: unknown flag %q", s, p)
		}
	}
	return ev, nil
}
