package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/watch"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/pkg/graphcheck"
)

// NewWatchCmd creates the watch subcommand, which re-checks graph sources
// whenever they, the node library or the config change.
func NewWatchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:          "watch",
		Short:        "Re-validate graph sources on change",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)
			debounce, _ := cmd.Flags().GetDuration("debounce")

			s := &watchSession{cmd: cmd, opts: opts}
			if err := s.reload(); err != nil {
				return err
			}
			files, err := ScanSourcesImpl(cmd.Context(), opts.workspace, nil)
			if err != nil {
				return err
			}
			s.check(files)

			w, err := watch.New(opts.workspace, debounce, opts.log)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Close()
			fmt.Fprintln(cmd.ErrOrStderr(), "watching "+displayPath(opts.workspace)+" (Ctrl-C to stop)")

			err = w.Run(cmd.Context(), s.handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	c.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before re-checking")
	return c
}

// watchSession holds the checker of a watch run. It is rebuilt when the node
// library or config changes.
type watchSession struct {
	cmd     *cobra.Command
	opts    runOptions
	checker *graphcheck.Checker
}

func (s *watchSession) reload() error {
	checker, err := graphcheck.New(s.opts.workspace, s.opts.checkerOptions()...)
	if err != nil {
		return err
	}
	s.checker = checker
	return nil
}

// handle re-checks the changed sources of one batch. A change under nodes/,
// resources/ or to graphcheck.yaml reloads the checker and re-checks every
// source.
func (s *watchSession) handle(paths []string) {
	var sources []string
	reload := false
	for _, p := range paths {
		rel := relPath(s.opts.workspace, p)
		switch {
		case rel == validate.ConfigFile,
			strings.HasPrefix(rel, registry.NodesDir+"/"),
			strings.HasPrefix(rel, "resources/"):
			reload = true
		case filepath.Ext(p) == ".py":
			sources = append(sources, p)
		}
	}
	if reload {
		if err := s.reload(); err != nil {
			s.opts.log.Errorw("reload failed", "error", err)
			fmt.Fprintf(s.cmd.ErrOrStderr(), "error: %v\n", err)
			return
		}
		all, err := ScanSourcesImpl(s.cmd.Context(), s.opts.workspace, nil)
		if err != nil {
			s.opts.log.Errorw("scan failed", "error", err)
			return
		}
		sources = all
	}
	s.check(sources)
}

func (s *watchSession) check(files []string) {
	if len(files) == 0 {
		return
	}
	start := time.Now()
	var found []issue.Issue
	for _, f := range files {
		got, err := s.checker.CheckFile(s.cmd.Context(), f)
		if err != nil {
			// Removed files surface here; skip them.
			s.opts.log.Debugw("check skipped", "file", f, "error", err)
			continue
		}
		found = append(found, got...)
	}
	if err := s.checker.SaveCache(); err != nil {
		s.opts.log.Warnw("cache save failed", "error", err)
	}
	title := fmt.Sprintf("[%s] 节点图校验：%d 个文件 (%s)", start.Format("15:04:05"), len(files), time.Since(start).Round(time.Millisecond))
	if err := report.Text(s.cmd.OutOrStdout(), title, found, s.opts.reportOptions()); err != nil {
		s.opts.log.Warnw("report failed", "error", err)
	}
}
