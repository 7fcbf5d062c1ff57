package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ape-plugins/internal/plugin/installer"
)

func installCmd(a *app) *cobra.Command {
	var (
		upgrade bool
		yes     bool
		python  string
	)

	cmd := &cobra.Command{
		Use:   "install <plugin>... | .",
		Short: "Install plugins",
		Long: `Install one or more plugins.

A plugin may carry a version ("solidity==0.8.1") or be a git remote
("git+https://github.com/ApeWorX/ape-solidity.git@main"). Without a version
the newest release compatible with the installed ape is chosen.

"." installs the plugins listed in the project's ape-config.yaml.

Examples:
  ape-plugins install solidity vyper
  ape-plugins install --upgrade solidity
  ape-plugins install .`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc := a.pythonLocation(python)

			s, err := a.openSession(ctx, loc, true)
			if err != nil {
				return err
			}

			plugins, err := a.resolvePlugins(args, s.opts)
			if err != nil {
				return err
			}

			inst := a.newInstaller(s)
			failed := false
			for _, p := range plugins {
				req, err := inst.PrepareInstall(p, installer.InstallOptions{
					Upgrade:          upgrade,
					SkipConfirmation: yes,
					PythonLocation:   loc,
				})
				if err != nil {
					failed = a.prepareFailed(p, err) || failed
					continue
				}

				ok, err := inst.Run(ctx, req)
				if err != nil {
					return err
				}
				failed = !ok || failed
			}

			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&upgrade, "upgrade", "U", false, "upgrade plugins within the installed ape's release series")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "install plugins outside the trusted registry without asking")
	cmd.Flags().StringVar(&python, "python", "", "python interpreter of the target environment")

	return cmd
}

func uninstallCmd(a *app) *cobra.Command {
	var (
		yes    bool
		python string
	)

	cmd := &cobra.Command{
		Use:   "uninstall <plugin>... | .",
		Short: "Uninstall plugins",
		Long: `Uninstall one or more plugins. Core plugins cannot be removed.

"." uninstalls the plugins listed in the project's ape-config.yaml.

Examples:
  ape-plugins uninstall solidity
  ape-plugins uninstall --yes .`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc := a.pythonLocation(python)

			s, err := a.openSession(ctx, loc, false)
			if err != nil {
				return err
			}

			plugins, err := a.resolvePlugins(args, s.opts)
			if err != nil {
				return err
			}

			inst := a.newInstaller(s)
			failed := false
			for _, p := range plugins {
				req, err := inst.PrepareUninstall(p, loc)
				if err != nil {
					failed = a.prepareFailed(p, err) || failed
					continue
				}

				if !yes {
					ok, err := a.prompt().Confirm(fmt.Sprintf("Remove the '%s' plugin?", p.Name()))
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}

				ok, err := inst.Run(ctx, req)
				if err != nil {
					return err
				}
				failed = !ok || failed
			}

			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().StringVar(&python, "python", "", "python interpreter of the target environment")

	return cmd
}
