package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/cache"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the validation cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCacheClearCmd(), newCacheInfoCmd())
	return c
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "clear",
		Short:        "Delete the validation cache file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, _ := cmd.Flags().GetString("workspace")
			if err := cache.Clear(ws); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已清除验证缓存: "+displayPath(cache.Path(ws)))
			return nil
		},
	}
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "info",
		Short:        "Show the cache location, rules fingerprint and entry count",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, _ := cmd.Flags().GetString("workspace")
			f := cache.Load(ws)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "文件: %s\n", displayPath(cache.Path(ws)))
			fmt.Fprintf(out, "规则指纹: %s\n", f.RulesHash)
			fmt.Fprintf(out, "条目: %d\n", f.Len())
			return nil
		},
	}
}
