package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/pkg/graphcheck"
)

// NewSelfCheckCmd creates the selfcheck subcommand, which validates a single
// graph file and prints the pass/fail banner.
func NewSelfCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "selfcheck <file>",
		Short:        "Validate one graph source file and print a pass/fail banner",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)

			path := resolveTarget(opts.workspace, args[0])
			checker, err := graphcheck.New(opts.workspace, opts.checkerOptions()...)
			if err != nil {
				return err
			}
			found, err := checker.CheckFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := checker.SaveCache(); err != nil {
				opts.log.Warnw("cache save failed", "error", err)
			}

			passed := !issue.HasErrors(found)
			if opts.json {
				err = report.JSON(cmd.OutOrStdout(), report.NewDocument(opts.runID, "", relPath(opts.workspace, path), found))
			} else {
				errs, warns := issue.Split(found)
				err = report.Banner(cmd.OutOrStdout(), displayPath(path), passed, errs, warns, opts.reportOptions())
			}
			if err != nil {
				return err
			}
			if !passed {
				return fmt.Errorf("%s: graph self-check failed", displayPath(path))
			}
			return nil
		},
	}
}
