// Package cmd implements the graphcheck CLI commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/logging"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/pkg/graphcheck"
)

// NewRootCmd creates the root graphcheck command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "graphcheck",
		Short:         "graphcheck - static validator for generated node graph sources",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE:          rootRunE,
	}
	pf := root.PersistentFlags()
	pf.StringP("workspace", "w", ".", "workspace root")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", logging.FormatConsole, "log format (console, json)")
	pf.Bool("json", false, "emit JSON instead of text")
	pf.Bool("no-cache", false, "ignore and do not update the validation cache")
	pf.Bool("profile", false, "print per-rule timings after the run")
	pf.String("color", "auto", "colorize output (auto, always, never)")

	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewSelfCheckCmd())
	root.AddCommand(NewPackageCmd())
	root.AddCommand(NewCacheCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewInitCmd(newDefaultInitIO()))
	root.AddCommand(NewScanCmd())
	root.AddCommand(NewNodesCmd())
	return root
}

func rootRunE(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// runOptions are the persistent flags resolved for one command invocation.
type runOptions struct {
	workspace string
	json      bool
	noCache   bool
	profile   bool
	color     bool
	runID     string
	log       *zap.SugaredLogger
}

// loadRunOptions reads the persistent flags of cmd, builds the logger and
// assigns a fresh run id.
func loadRunOptions(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	workspace, _ := flags.GetString("workspace")
	level, _ := flags.GetString("log-level")
	format, _ := flags.GetString("log-format")
	colorMode, _ := flags.GetString("color")

	asJSON, err := logging.ParseFormat(format)
	if err != nil {
		return runOptions{}, err
	}
	log, err := logging.NewTo(cmd.ErrOrStderr(), level, asJSON)
	if err != nil {
		return runOptions{}, err
	}
	useColor, err := colorEnabled(colorMode, cmd.OutOrStdout())
	if err != nil {
		return runOptions{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return runOptions{}, fmt.Errorf("generating run id: %w", err)
	}

	o := runOptions{
		workspace: workspace,
		color:     useColor,
		runID:     id.String(),
		log:       log.With("run_id", id.String()),
	}
	o.json, _ = flags.GetBool("json")
	o.noCache, _ = flags.GetBool("no-cache")
	o.profile, _ = flags.GetBool("profile")
	if o.profile {
		graphcheck.ResetValidationProfilingStats()
		graphcheck.EnableValidationProfiling(true)
	}
	return o, nil
}

func (o runOptions) reportOptions() report.Options { return report.Options{Color: o.color} }

func (o runOptions) checkerOptions() []graphcheck.Option {
	opts := []graphcheck.Option{graphcheck.WithLogger(o.log)}
	if o.noCache {
		opts = append(opts, graphcheck.WithoutCache())
	}
	return opts
}

// finish flushes the logger and prints the profile when it was requested.
func (o runOptions) finish(cmd *cobra.Command) {
	if o.profile {
		printProfile(cmd.ErrOrStderr())
		graphcheck.EnableValidationProfiling(false)
	}
	_ = o.log.Sync()
}

// colorEnabled resolves the --color flag. auto enables color only when out is
// a terminal.
func colorEnabled(mode string, out io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		f, ok := out.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
	}
}

// printProfile writes the accumulated per-rule timings, slowest first, and
// the number of observations recorded by the rule histogram.
func printProfile(w io.Writer) {
	stats := graphcheck.ValidationProfilingStats()
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := stats[ids[i]], stats[ids[j]]
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return ids[i] < ids[j]
	})
	fmt.Fprintln(w, "规则耗时:")
	for _, id := range ids {
		s := stats[id]
		fmt.Fprintf(w, "  %-32s %6d 次 %12s\n", id, s.Calls, s.Time)
	}

	families, err := validate.Metrics.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		var samples uint64
		for _, m := range mf.GetMetric() {
			samples += m.GetHistogram().GetSampleCount()
		}
		fmt.Fprintf(w, "  %s: %d 个系列，%d 次采样\n", mf.GetName(), len(mf.GetMetric()), samples)
	}
}
