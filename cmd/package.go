package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/pkg/graphcheck"
)

// NewPackageCmd creates the package subcommand, which runs the package rules
// over the named packages, or over every package of the workspace.
func NewPackageCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "package [id...]",
		Short:        "Validate content packages: mounts, entities, signals, structs and management data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)

			ids := args
			if len(ids) == 0 {
				ids, err = pkgmodel.PackageIDs(opts.workspace)
				if err != nil {
					return err
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("no packages found under %s", displayPath(opts.workspace))
			}
			res, err := pkgmodel.LoadResources(opts.workspace)
			if err != nil {
				return err
			}

			registries := registry.NewCache(nil)
			docs := make([]report.Document, 0, len(ids))
			failed := 0
			for _, id := range ids {
				pkg, err := pkgmodel.LoadPackage(opts.workspace, id)
				if err != nil {
					return err
				}
				v, err := graphcheck.NewComprehensiveValidator(pkg, res,
					graphcheck.WithWorkspace(opts.workspace),
					graphcheck.WithRegistries(registries),
					graphcheck.WithLogger(opts.log.With("package", id)))
				if err != nil {
					return err
				}
				found, err := v.ValidateAll(cmd.Context())
				if err != nil {
					return err
				}
				if issue.HasErrors(found) {
					failed++
				}
				if opts.json {
					docs = append(docs, report.NewDocument(opts.runID, pkg.ID, pkg.Name, found))
					continue
				}
				title := fmt.Sprintf("存档 '%s' (%s)", pkg.Name, pkg.ID)
				if err := report.Text(cmd.OutOrStdout(), title, found, opts.reportOptions()); err != nil {
					return err
				}
			}
			if opts.json {
				if err := report.JSONDocuments(cmd.OutOrStdout(), docs); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("validation failed: %d of %d package(s) have errors", failed, len(ids))
			}
			return nil
		},
	}
}
