package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ape-plugins/internal/logging"
	"github.com/jmylchreest/ape-plugins/internal/plugin/environment"
	"github.com/jmylchreest/ape-plugins/internal/plugin/installer"
	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
	"github.com/jmylchreest/ape-plugins/internal/version"
)

func updateCmd(a *app) *cobra.Command {
	var python string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Upgrade every installed plugin",
		Long: `Upgrade every installed plugin to the newest release compatible with the
installed ape.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			loc := a.pythonLocation(python)

			s, err := a.openSession(ctx, loc, true)
			if err != nil {
				return err
			}

			plugins := installedPlugins(s)
			if len(plugins) == 0 {
				a.logger.Info("no plugins installed")
				return nil
			}

			inst := a.newInstaller(s)
			sum := newSummary()
			failed := false
			for _, p := range plugins {
				before := p.CurrentVersion()
				ok, err := a.apply(ctx, inst, p, installer.InstallOptions{
					Upgrade:          true,
					SkipConfirmation: true,
					PythonLocation:   loc,
				})
				if err != nil {
					return err
				}
				failed = !ok || failed

				after := a.installedVersion(ctx, s.env, p)
				sum.add(p.Name(), before, after, outcome(ok, before, after))
			}

			a.printSummary(cmd, sum)
			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&python, "python", "", "python interpreter of the target environment")

	return cmd
}

func changeVersionCmd(a *app) *cobra.Command {
	var python string

	cmd := &cobra.Command{
		Use:   "change-version <version>",
		Short: "Change the ape version and reinstall plugins to match",
		Long: `Install the given ape version, then reinstall every installed plugin
within that version's release series.

Examples:
  ape-plugins change-version 0.8.12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc := a.pythonLocation(python)

			target, err := version.ParseHost(args[0])
			if err != nil {
				return err
			}

			s, err := a.openSession(ctx, loc, false)
			if err != nil {
				return err
			}
			plugins := installedPlugins(s)

			argv := s.command.Args("install", loc, environment.HostDistribution+"=="+args[0], "--quiet")
			a.logger.Info("changing ape version", "version", args[0])
			if _, stderr, err := a.runner.Run(ctx, argv, nil); err != nil {
				return fmt.Errorf("failed to install %s==%s: %w: %s", environment.HostDistribution, args[0], err, stderr)
			}
			logging.Success(a.logger, "ape version changed", "version", args[0])

			opts := s.opts
			opts.Host = target
			inst := a.newInstaller(s)
			sum := newSummary()
			failed := false
			for _, p := range plugins {
				before := p.CurrentVersion()
				pinned, err := metadata.New(p.Name(), target.VersionRange(), opts)
				if err != nil {
					return err
				}

				ok, err := a.apply(ctx, inst, pinned, installer.InstallOptions{
					SkipConfirmation: true,
					PythonLocation:   loc,
				})
				if err != nil {
					return err
				}
				failed = !ok || failed

				after := a.installedVersion(ctx, s.env, p)
				sum.add(p.Name(), before, after, outcome(ok, before, after))
			}

			a.printSummary(cmd, sum)
			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&python, "python", "", "python interpreter of the target environment")

	return cmd
}

// apply prepares and runs one install or upgrade. Only a command that could
// not be started is returned as an error.
func (a *app) apply(ctx context.Context, inst *installer.Installer, p *metadata.Plugin, opts installer.InstallOptions) (bool, error) {
	req, err := inst.PrepareInstall(p, opts)
	if err != nil {
		return !a.prepareFailed(p, err), nil
	}
	return inst.Run(ctx, req)
}

func (a *app) installedVersion(ctx context.Context, env *environment.Environment, p *metadata.Plugin) string {
	snap, err := env.Snapshot(ctx)
	if err != nil {
		return ""
	}
	return snap.Version(p.PackageName())
}

func (a *app) printSummary(cmd *cobra.Command, sum *summary) {
	if a.quiet || sum.empty() {
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), sum.render())
}

func outcome(ok bool, before, after string) string {
	switch {
	case !ok:
		return "failed"
	case before == after:
		return "unchanged"
	default:
		return "changed"
	}
}
