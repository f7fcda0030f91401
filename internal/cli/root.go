// Package cli implements the lifeplan command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeplan/internal/config"
	"lifeplan/internal/core"
	"lifeplan/internal/logging"
	"lifeplan/internal/persistence"
)

// app carries the state shared by every command of one invocation. The
// service is opened lazily so commands like config show never touch storage.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath  string
	verbose     bool
	showMetrics bool

	cfg      *config.Config
	zl       *zap.Logger
	logger   *logging.Adapter
	registry *prometheus.Registry
	svc      *core.Service
	store    *persistence.Store
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "lifeplan",
		Short:         "Goals, projects, tasks and schedules in one place",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./lifeplan.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "print operation counters on exit")

	root.AddCommand(
		a.goalCmd(),
		a.projectCmd(),
		a.taskCmd(),
		a.timeBlockCmd(),
		a.todoCmd(),
		a.auditCmd(),
		a.cleanupCmd(),
		a.linkCmd(),
		a.refreshCmd(),
		a.domainsCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the command line against the process streams.
func Execute(version string) error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg
	return cfg, nil
}

// service opens storage on first use and returns the shared service.
func (a *app) service(ctx context.Context) (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	zl, err := logging.New(cfg.Log, a.errOut)
	if err != nil {
		return nil, err
	}
	a.zl = zl
	a.logger = logging.NewAdapter(zl)
	a.registry = prometheus.NewRegistry()

	svc, store, err := core.OpenService(ctx, core.StorageConfig{KV: cfg.KV(a.logger)},
		core.WithLogger(a.logger),
		core.WithSettleDelay(cfg.Service.SettleDelay),
		core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(a.registry)),
		core.WithTracer(core.NewOTelTracer(nil)),
	)
	if err != nil {
		return nil, err
	}
	a.svc, a.store = svc, store
	return svc, nil
}

func (a *app) close() error {
	var errs []error
	if a.showMetrics && a.registry != nil {
		errs = append(errs, a.printMetrics())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store, a.svc = nil, nil
	}
	if a.logger != nil {
		// Sync on a console writer can fail with EINVAL; nothing is lost.
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) printMetrics() error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		if mf.GetName() != "lifeplan_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%-28s %-8s %.0f", labels["operation"], labels["status"], m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(a.errOut, l)
	}
	return nil
}

// withService adapts a handler needing the service into a cobra RunE.
func (a *app) withService(fn func(ctx context.Context, svc *core.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := a.service(ctx)
		if err != nil {
			return err
		}
		if err := fn(ctx, svc, args); err != nil {
			_ = a.close()
			return err
		}
		return nil
	}
}
