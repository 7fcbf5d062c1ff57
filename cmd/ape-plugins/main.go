// ape-plugins manages the plugins of the ape framework.
//
// It lists core, installed, third-party and available plugins, and installs,
// upgrades and removes them through pip or uv.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"github.com/jmylchreest/ape-plugins/internal/cli"
)

func main() {
	cli.Execute()
}
