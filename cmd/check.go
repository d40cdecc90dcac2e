package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/pkg/graphcheck"
)

// NewCheckCmd creates the check subcommand, which validates graph source
// files in parallel.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "check [path...]",
		Short:        "Validate graph source files (default: graphs/ and composite_nodes/)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)

			checker, err := graphcheck.New(opts.workspace, opts.checkerOptions()...)
			if err != nil {
				return err
			}
			files, err := ScanSourcesImpl(cmd.Context(), opts.workspace, args)
			if err != nil {
				return err
			}
			opts.log.Infow("check started", "files", len(files), "workspace", opts.workspace)

			found, err := checkFiles(cmd, checker, files)
			if err != nil {
				return err
			}
			if err := checker.SaveCache(); err != nil {
				opts.log.Warnw("cache save failed", "error", err)
			}

			if opts.json {
				err = report.JSON(cmd.OutOrStdout(), report.NewDocument(opts.runID, "", "", found))
			} else {
				title := fmt.Sprintf("节点图校验：%d 个文件", len(files))
				err = report.Text(cmd.OutOrStdout(), title, found, opts.reportOptions())
			}
			if err != nil {
				return err
			}
			s := issue.Summarize(found)
			opts.log.Infow("check finished", "issues", s.Total, "errors", s.Errors)
			if !s.Passed {
				return fmt.Errorf("validation failed: %d error(s)", s.Errors)
			}
			return nil
		},
	}
}

// checkFiles validates files concurrently and returns their issues in file
// order. The worker count comes from the workspace config, defaulting to
// GOMAXPROCS.
func checkFiles(cmd *cobra.Command, checker *graphcheck.Checker, files []string) ([]issue.Issue, error) {
	results := make([][]issue.Issue, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	workers := checker.Env().Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			got, err := checker.CheckFile(ctx, f)
			if err != nil {
				return err
			}
			results[i] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []issue.Issue
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
