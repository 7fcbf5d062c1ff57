package installer

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ape-plugins/internal/logging"
	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
)

// ResultHandler checks the environment after the package manager exits and
// logs the outcome.
type ResultHandler struct {
	plugin *metadata.Plugin
	env    Environment
	logger hclog.Logger
}

// NewResultHandler creates a handler for p.
func NewResultHandler(p *metadata.Plugin, env Environment, logger hclog.Logger) *ResultHandler {
	return &ResultHandler{
		plugin: p,
		env:    env,
		logger: logging.OrDiscard(logger),
	}
}

// HandleInstall reports whether the plugin ended up installed cleanly.
func (h *ResultHandler) HandleInstall(ctx context.Context, exit int) bool {
	installed, _, ok := h.check(ctx)
	switch {
	case !ok:
		return false
	case !installed:
		h.logModifyFailed("install")
		return false
	case exit != 0:
		h.logErrorsOccurred("installing")
		return false
	}

	logging.Success(h.logger, "plugin has been installed", "plugin", h.plugin.String())
	return true
}

// HandleUpgrade compares the installed version with versionBefore.
func (h *ResultHandler) HandleUpgrade(ctx context.Context, exit int, versionBefore string) bool {
	if exit != 0 {
		h.logErrorsOccurred("upgrading")
		return false
	}

	_, versionNow, ok := h.check(ctx)
	switch {
	case !ok:
		return false
	case versionNow != "" && versionNow == versionBefore:
		h.logger.Info("plugin already at version", "plugin", h.plugin.Name(), "version", versionNow)
	case versionNow != "":
		logging.Success(h.logger, "plugin has been upgraded", "plugin", h.plugin.Name(), "version", versionNow)
	}

	// Installs from a remote may report no version; the process succeeded.
	return true
}

// HandleUninstall reports whether the plugin is gone.
func (h *ResultHandler) HandleUninstall(ctx context.Context, exit int) bool {
	installed, _, ok := h.check(ctx)
	switch {
	case !ok:
		return false
	case installed:
		h.logModifyFailed("uninstall")
		return false
	case exit != 0:
		h.logErrorsOccurred("uninstalling")
		return false
	}

	logging.Success(h.logger, "plugin has been uninstalled", "plugin", h.plugin.Name())
	return true
}

// check refreshes the environment, bypassing any cached listing.
func (h *ResultHandler) check(ctx context.Context) (installed bool, currentVersion string, ok bool) {
	snap, err := h.env.Refresh(ctx)
	if err != nil {
		h.logger.Error("failed to check environment", "plugin", h.plugin.Name(), "error", err)
		return false, "", false
	}
	pkg := h.plugin.PackageName()
	return snap.IsInstalled(pkg), snap.Version(pkg), true
}

func (h *ResultHandler) logErrorsOccurred(verb string) {
	h.logger.Error("errors occurred when "+verb+" plugin", "plugin", h.plugin.String())
}

func (h *ResultHandler) logModifyFailed(verb string) {
	h.logger.Error("failed to "+verb+" plugin", "plugin", h.plugin.String())
}
