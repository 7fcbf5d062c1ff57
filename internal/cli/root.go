// Package cli provides the command-line interface for ape-plugins.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ape-plugins/internal/config"
	"github.com/jmylchreest/ape-plugins/internal/logging"
	"github.com/jmylchreest/ape-plugins/internal/plugin/installer"
	"github.com/jmylchreest/ape-plugins/internal/plugin/pkgmgr"
	"github.com/jmylchreest/ape-plugins/internal/plugin/registry"
	"github.com/jmylchreest/ape-plugins/internal/version"
)

// errFailed is returned when at least one plugin could not be modified.
// The individual failures have already been logged.
var errFailed = errors.New("one or more plugins failed")

// Option overrides a collaborator of the commands, mainly for tests.
type Option func(*app)

// WithProcessRunner replaces the runner used for the package manager.
func WithProcessRunner(r pkgmgr.ProcessRunner) Option {
	return func(a *app) {
		a.runner = r
	}
}

// WithLookPath replaces PATH lookups used to detect uv.
func WithLookPath(f pkgmgr.LookPathFunc) Option {
	return func(a *app) {
		a.lookPath = f
	}
}

// WithRegistry replaces the configured registry.
func WithRegistry(r registry.Registry) Option {
	return func(a *app) {
		a.registry = r
	}
}

// WithConfirmer replaces the terminal prompt.
func WithConfirmer(c installer.Confirmer) Option {
	return func(a *app) {
		a.confirmer = c
	}
}

// WithStdin sets the input read by the terminal prompt.
func WithStdin(r io.Reader) Option {
	return func(a *app) {
		a.stdin = r
	}
}

// app holds state shared by every command of one invocation.
type app struct {
	runner    pkgmgr.ProcessRunner
	lookPath  pkgmgr.LookPathFunc
	registry  registry.Registry
	confirmer installer.Confirmer
	stdin     io.Reader

	verbose bool
	quiet   bool
	offline bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		runner: pkgmgr.NewRealProcessRunner(),
		stdin:  os.Stdin,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "ape-plugins",
		Short: "Manage ape plugins",
		Long: `ape-plugins lists, installs, upgrades and removes plugins of the ape
framework using pip or uv.

Plugins are classified as core (bundled with ape), installed (trusted and
installed), third-party (installed but not trusted) and available (offered by
the trusted registry but not installed).`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&a.offline, "offline", false, "do not query the plugin registry")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		versionCmd(),
		listCmd(a),
		installCmd(a),
		uninstallCmd(a),
		updateCmd(a),
		changeVersionCmd(a),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger. Flags override the
// environment.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.offline {
		cfg.Offline = true
	}
	a.cfg = cfg

	a.logger = logging.New(logging.Options{
		Output:  cmd.ErrOrStderr(),
		Level:   cfg.LogLevel,
		Verbose: a.verbose,
		Quiet:   a.quiet,
	})
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
