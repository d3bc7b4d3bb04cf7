package main

import (
	"bytes"
	"strings"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/dynamo"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    config.EventConfig
		wantErr bool
	}{
		{in: "x0=0", want: config.EventConfig{Name: "x0=0", Component: 0}},
		{in: "x2=1.5:negative", want: config.EventConfig{Name: "x2=1.5", Component: 2, Value: 1.5, Direction: "negative"}},
		{in: "x1=-1:terminal:positive", want: config.EventConfig{Name: "x1=-1", Component: 1, Value: -1, Direction: "positive", Terminal: true}},
		{in: "y0=0", wantErr: true},
		{in: "x0", wantErr: true},
		{in: "xa=0", wantErr: true},
		{in: "x0=zero", wantErr: true},
		{in: "x0=0:sideways", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseEvent(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBuildConfigFlags(t *testing.T) {
	cmd := runCommand()
	err := cmd.ParseFlags([]string{
		"--mode", "until", "--target", "5", "--tol", "1e-10",
		"--set", "length=2", "--state", "0.1,0",
		"--event", "x0=0:terminal",
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, "pendulum")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != config.ModeUntil || cfg.Target != 5 || cfg.End() != 5 {
		t.Errorf("bad mode/target: %+v", cfg)
	}
	if cfg.Tolerance != 1e-10 {
		t.Errorf("expected tolerance 1e-10, got %g", cfg.Tolerance)
	}
	if cfg.Params["length"] != 2 {
		t.Errorf("expected length 2, got %v", cfg.Params)
	}
	if len(cfg.InitState) != 2 || cfg.InitState[0] != 0.1 {
		t.Errorf("bad init state %v", cfg.InitState)
	}
	if len(cfg.Events) != 1 || !cfg.Events[0].Terminal {
		t.Errorf("bad events %+v", cfg.Events)
	}
}

func TestBuildConfigGridFromDuration(t *testing.T) {
	cmd := runCommand()
	if err := cmd.ParseFlags([]string{"--mode", "grid", "--time", "4", "--points", "5"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, "oscillator")
	if err != nil {
		t.Fatal(err)
	}
	got := cfg.GridTimes()
	want := []float64{0, 1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("grid[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBuildConfigRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"--set", "length"},
		{"--set", "length=abc"},
		{"--tol=-1"},
		{"--mode", "sideways"},
		{"--preset", "nope"},
	} {
		cmd := runCommand()
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, "pendulum"); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestUniformStep(t *testing.T) {
	if dt, ok := uniformStep([]float64{0, 0.5, 1, 1.5}); !ok || dt != 0.5 {
		t.Errorf("expected 0.5, got %v %v", dt, ok)
	}
	if _, ok := uniformStep([]float64{0, 0.5, 1.2}); ok {
		t.Error("expected uneven samples to be rejected")
	}
	if _, ok := uniformStep([]float64{0, 1}); ok {
		t.Error("expected too few samples to be rejected")
	}
}

func TestParseSweepGrid(t *testing.T) {
	names, ranges, err := parseSweepGrid([]string{"tolerance=1e-6, 1e-9", "omega=2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "tolerance" || names[1] != "omega" {
		t.Errorf("bad names %v", names)
	}
	if len(ranges[0]) != 2 || ranges[0][1] != 1e-9 || ranges[1][0] != 2 {
		t.Errorf("bad ranges %v", ranges)
	}

	for _, bad := range [][]string{nil, {"=1"}, {"omega"}, {"omega=1,x"}} {
		if _, _, err := parseSweepGrid(bad); err == nil {
			t.Errorf("%v: expected error", bad)
		}
	}
}

func TestProgressLogger(t *testing.T) {
	var buf bytes.Buffer
	saved := logger
	logger = level.NewFilter(kitlog.NewLogfmtLogger(&buf), level.AllowDebug())
	defer func() { logger = saved }()

	obs := progressLogger(2)
	for i := 1; i <= 5; i++ {
		obs.OnStep(dynamo.State{3, 4}, float64(i), 1)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 progress lines, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "step=4") || !strings.Contains(lines[1], "norm=5") {
		t.Errorf("unexpected line %q", lines[1])
	}

	buf.Reset()
	progressLogger(0).OnStep(dynamo.State{1}, 0, 1)
	if buf.Len() != 0 {
		t.Errorf("n = 0 should not log, got %q", buf.String())
	}
}
