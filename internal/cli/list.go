package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
)

func listCmd(a *app) *cobra.Command {
	var (
		all       bool
		noVersion bool
		python    string
		format    = metadata.FormatDefault
		include   metadata.TypeList
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Long: `List installed plugins, grouped by type.

Examples:
  # Installed and third-party plugins
  ape-plugins list

  # Every plugin, including those available from the registry
  ape-plugins list --all

  # Requirements-file output
  ape-plugins list --format freeze`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := a.openSession(ctx, a.pythonLocation(python), false)
			if err != nil {
				return err
			}

			types := include
			if all {
				types = metadata.Types
			}

			opts := metadata.ListOptions{
				Options:          s.opts,
				IncludeAvailable: all || slices.Contains(types, metadata.TypeAvailable),
				Logger:           a.logger,
			}

			list, err := metadata.Load(ctx, s.snap, a.pluginRegistry(), opts)
			if err != nil {
				return err
			}

			out := list.Render(metadata.RenderOptions{
				Include:   types,
				NoVersion: noVersion,
				Format:    format,
			})
			if out == "" {
				if !all {
					a.logger.Info("no plugins installed (use '--all' to see available plugins)")
				}
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every plugin, including core and available")
	cmd.Flags().VarP(&format, "format", "f", "output format (default, prefixed, freeze)")
	cmd.Flags().Var(&include, "include", "plugin types to show (core, installed, third-party, available)")
	cmd.Flags().BoolVar(&noVersion, "no-version", false, "omit versions")
	cmd.Flags().StringVar(&python, "python", "", "python interpreter of the target environment")

	return cmd
}
