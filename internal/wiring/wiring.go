// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/anvil/internal/adapters/cachestore"
	_ "go.trai.ch/anvil/internal/adapters/config"
	_ "go.trai.ch/anvil/internal/adapters/deps"
	_ "go.trai.ch/anvil/internal/adapters/export"
	_ "go.trai.ch/anvil/internal/adapters/fs"
	_ "go.trai.ch/anvil/internal/adapters/logger"
	_ "go.trai.ch/anvil/internal/adapters/shell"
	_ "go.trai.ch/anvil/internal/adapters/telemetry"
	_ "go.trai.ch/anvil/internal/adapters/toolchain"
	_ "go.trai.ch/anvil/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/anvil/internal/app"
	_ "go.trai.ch/anvil/internal/engine/orchestrator"
)
