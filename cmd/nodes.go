package cmd

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
)

// NewNodesCmd creates the nodes subcommand, which prints the resolved node
// registry of one scope.
func NewNodesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:          "nodes",
		Short:        "Print the node registry resolved for the workspace",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)
			scope, _ := cmd.Flags().GetString("scope")
			category, _ := cmd.Flags().GetString("category")

			reg, err := registry.NewCache(nil).Resolve(opts.workspace, registry.NormalizeScope(scope))
			if err != nil {
				return err
			}
			defs := make([]registry.NodeDefinition, 0, reg.Len())
			for _, name := range reg.Names() {
				d, _ := reg.Lookup(name)
				if category != "" && !strings.Contains(d.Category, category) {
					continue
				}
				defs = append(defs, d)
			}

			if opts.json {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(defs)
			}
			out := cmd.OutOrStdout()
			for _, d := range defs {
				fmt.Fprintf(out, "%s\t%s\t(%s) -> (%s)\n", d.Name, d.Category, ports(d.Inputs), ports(d.Outputs))
			}
			fmt.Fprintf(out, "共 %d 个节点 (%s)\n", len(defs), reg.Scope())
			return nil
		},
	}
	c.Flags().String("scope", string(registry.ScopeServer), "registry scope (server, client)")
	c.Flags().String("category", "", "only list nodes whose category contains this text")
	return c
}

func ports(ps []registry.Port) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.Type == "" {
			parts = append(parts, p.Name)
			continue
		}
		parts = append(parts, p.Name+": "+p.Type)
	}
	return strings.Join(parts, ", ")
}
