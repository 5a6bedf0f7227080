// Command fsmdemo drives a keypad door state machine from stdin
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/librescoot/tablefsm"
	"github.com/librescoot/tablefsm/internal/config"
	"github.com/librescoot/tablefsm/internal/demo"
	"github.com/librescoot/tablefsm/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type cli struct {
	LogLevel    string        `name:"log-level" help:"Log level: debug, info, warn or error."`
	LogFile     string        `name:"log-file" help:"Write logs to this file, rotated by size, instead of stderr." type:"path"`
	Code        string        `help:"Unlock code, distinct digits."`
	RelockAfter time.Duration `name:"relock-after" help:"Delay before an unlocked door relocks."`

	Run      runCmd      `cmd:"" default:"1" help:"Read keys from stdin, one per line, and print the door state after each."`
	Describe describeCmd `cmd:"" help:"Print the door state machine as YAML."`
}

// app is bound into every command's Run method
type app struct {
	cfg    config.Config
	logger *logging.Logger
	in     io.Reader
	out    io.Writer
}

func (a *app) door(opts ...tablefsm.MachineOption) (*demo.Door, error) {
	opts = append([]tablefsm.MachineOption{
		tablefsm.WithLogger(a.logger.Logger),
		tablefsm.WithErrorHandler(func(err error) {
			a.logger.Error("timer transition failed", zap.Error(err))
		}),
	}, opts...)
	return demo.NewDoor(demo.Options{Code: a.cfg.Code, RelockAfter: a.cfg.RelockAfter}, opts...)
}

type runCmd struct {
	Metrics bool `help:"Print the machine's Prometheus counters on exit."`
}

func (c *runCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics, err := tablefsm.NewMetrics(reg, "fsmdemo")
	if err != nil {
		return err
	}

	door, err := a.door(tablefsm.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer door.Close()

	a.logger.Info("door ready", zap.Stringer("state", door.State()), zap.Duration("relock_after", a.cfg.RelockAfter))
	if err := demo.Run(ctx, door, a.in, a.out, a.logger.Logger); err != nil {
		return err
	}

	if !c.Metrics {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.out, mf); err != nil {
			return err
		}
	}
	return nil
}

type describeCmd struct{}

func (c *describeCmd) Run(a *app) error {
	door, err := a.door()
	if err != nil {
		return err
	}
	defer door.Close()

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(door.Describe()); err != nil {
		return err
	}
	return enc.Close()
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fsmdemo:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var c cli
	parser, err := kong.New(&c,
		kong.Name("fsmdemo"),
		kong.Description("Keypad door built on tablefsm."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	c.override(&cfg)

	logger, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	return kctx.Run(&app{cfg: cfg, logger: logger, in: in, out: out})
}

// override applies the flags that were set on top of the environment
func (c *cli) override(cfg *config.Config) {
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.LogFile = c.LogFile
	}
	if c.Code != "" {
		cfg.Code = c.Code
	}
	if c.RelockAfter > 0 {
		cfg.RelockAfter = c.RelockAfter
	}
}
