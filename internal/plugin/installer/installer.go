// Package installer prepares and runs package-manager invocations that
// install, upgrade and uninstall plugins, and interprets their results.
package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ape-plugins/internal/logging"
	"github.com/jmylchreest/ape-plugins/internal/plugin/environment"
	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
	"github.com/jmylchreest/ape-plugins/internal/plugin/pkgmgr"
	"github.com/jmylchreest/ape-plugins/internal/security"
)

var (
	// ErrCorePlugin is returned for plugins that ship with the host.
	ErrCorePlugin = errors.New("cannot modify core plugin")

	// ErrUpgradeWithVersion is returned when both an upgrade and a version
	// were requested.
	ErrUpgradeWithVersion = errors.New("cannot use upgrade when specifying a version")

	// ErrAlreadyInstalled is returned when there is nothing to install.
	ErrAlreadyInstalled = errors.New("plugin already installed")

	// ErrNotInstalled is returned when uninstalling a missing plugin.
	ErrNotInstalled = errors.New("plugin not installed")

	// ErrDeclined is returned when the user declines the confirmation.
	ErrDeclined = errors.New("installation declined")

	// ErrUnknownHostVersion is returned when an upgrade needs the host range.
	ErrUnknownHostVersion = errors.New("host version unknown")
)

// Action is the kind of modification a Request performs.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpgrade   Action = "upgrade"
	ActionUninstall Action = "uninstall"
)

// Environment re-reads the installed distributions.
type Environment interface {
	Refresh(ctx context.Context) (*environment.Snapshot, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// Request is a prepared package-manager invocation.
type Request struct {
	Action Action
	Plugin *metadata.Plugin
	Args   []string

	// VersionBefore is the installed version prior to an upgrade.
	VersionBefore string

	Handler *ResultHandler
}

// String returns the command line.
func (r *Request) String() string {
	return strings.Join(r.Args, " ")
}

// InstallOptions configures PrepareInstall.
type InstallOptions struct {
	Upgrade          bool
	SkipConfirmation bool
	PythonLocation   string
}

// Installer builds and runs plugin modifications.
type Installer struct {
	command *pkgmgr.Command
	runner  pkgmgr.ProcessRunner
	env     Environment
	confirm Confirmer
	logger  hclog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithConfirmer sets the prompt used for plugins outside the registry.
func WithConfirmer(c Confirmer) Option {
	return func(i *Installer) {
		i.confirm = c
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// New creates an Installer.
func New(command *pkgmgr.Command, runner pkgmgr.ProcessRunner, env Environment, opts ...Option) *Installer {
	i := &Installer{
		command: command,
		runner:  runner,
		env:     env,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.OrDiscard(i.logger).Named("installer")
	return i
}

// Command returns the package-manager command in use.
func (i *Installer) Command() *pkgmgr.Command {
	return i.command
}

// PrepareInstall builds an install or upgrade request for p.
func (i *Installer) PrepareInstall(p *metadata.Plugin, opts InstallOptions) (*Request, error) {
	switch {
	case p.InCore():
		i.logger.Error("cannot install core plugin", "plugin", p.Name())
		return nil, fmt.Errorf("%w %q", ErrCorePlugin, p.Name())
	case p.Version() != "" && opts.Upgrade:
		i.logger.Error("cannot use upgrade when specifying a version", "plugin", p.Name())
		return nil, fmt.Errorf("%w for plugin %q", ErrUpgradeWithVersion, p.Name())
	case p.IsThirdParty():
		i.logger.Warn("plugin is not a trusted plugin", "plugin", p.Name())
	}

	args := i.command.Args("install", opts.PythonLocation)
	handler := i.newResultHandler(p)

	if opts.Upgrade {
		host := p.Options().Host
		if host == nil {
			return nil, fmt.Errorf("%w: cannot bound upgrade of %q", ErrUnknownHostVersion, p.Name())
		}

		i.logger.Info("upgrading plugin", "plugin", p.Name())

		// Upgrades stay inside the host's release series.
		args = append(args, "--upgrade", p.PackageName()+host.VersionRange(), "--quiet")
		return &Request{
			Action:        ActionUpgrade,
			Plugin:        p,
			Args:          args,
			VersionBefore: p.CurrentVersion(),
			Handler:       handler,
		}, nil
	}

	if !p.CanInstall() {
		i.logger.Warn("plugin already installed, did you mean to upgrade?", "plugin", p.Name())
		return nil, fmt.Errorf("%w: %q", ErrAlreadyInstalled, p.Name())
	}

	if !p.IsAvailable() && !opts.SkipConfirmation {
		ok, err := i.confirmInstall(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrDeclined, p.Name())
		}
	}

	if p.IsRemote() {
		if err := security.ValidateGitRemote(p.Version()); err != nil {
			return nil, fmt.Errorf("plugin %q: %w", p.Name(), err)
		}
	}

	installStr, err := p.InstallString()
	if err != nil {
		return nil, err
	}

	i.logger.Info("installing plugin", "plugin", p.String())
	args = append(args, installStr, "--quiet")
	return &Request{
		Action:  ActionInstall,
		Plugin:  p,
		Args:    args,
		Handler: handler,
	}, nil
}

// PrepareUninstall builds an uninstall request. pip needs "-y" to skip its
// prompt; uv never prompts.
func (i *Installer) PrepareUninstall(p *metadata.Plugin, pythonLocation string) (*Request, error) {
	if p.InCore() {
		i.logger.Error("cannot uninstall core plugin", "plugin", p.Name())
		return nil, fmt.Errorf("%w %q", ErrCorePlugin, p.Name())
	}
	if !p.IsInstalled() {
		i.logger.Warn("plugin is not installed", "plugin", p.Name())
		return nil, fmt.Errorf("%w: %q", ErrNotInstalled, p.Name())
	}

	args := i.command.Args("uninstall", pythonLocation)
	if !i.command.IsUV() {
		args = append(args, "-y")
	}
	args = append(args, p.PackageName(), "--quiet")

	return &Request{
		Action:  ActionUninstall,
		Plugin:  p,
		Args:    args,
		Handler: i.newResultHandler(p),
	}, nil
}

// Run executes req and reports whether the modification succeeded.
// Failures of the package manager itself are logged by the result handler;
// the returned error is reserved for commands that could not be started.
func (i *Installer) Run(ctx context.Context, req *Request) (bool, error) {
	i.logger.Debug("running package manager", "command", req.String())

	_, stderr, err := i.runner.Run(ctx, req.Args, nil)
	exit := pkgmgr.ExitCode(err)
	if exit < 0 {
		return false, fmt.Errorf("failed to run %q: %w", req.String(), err)
	}
	if exit != 0 && len(stderr) > 0 {
		i.logger.Debug("package manager stderr", "output", strings.TrimSpace(string(stderr)))
	}

	switch req.Action {
	case ActionUpgrade:
		return req.Handler.HandleUpgrade(ctx, exit, req.VersionBefore), nil
	case ActionUninstall:
		return req.Handler.HandleUninstall(ctx, exit), nil
	default:
		return req.Handler.HandleInstall(ctx, exit), nil
	}
}

func (i *Installer) confirmInstall(p *metadata.Plugin) (bool, error) {
	if i.confirm == nil {
		return false, nil
	}
	ok, err := i.confirm.Confirm(fmt.Sprintf("Install the '%s' plugin?", p.Name()))
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return ok, nil
}

func (i *Installer) newResultHandler(p *metadata.Plugin) *ResultHandler {
	return NewResultHandler(p, i.env, i.logger)
}
