// Package commands contains the qwenrot subcommands. Each constructor
// receives the shared Options so the root command can resolve configuration
// once for every subcommand.
package commands

import (
	"time"

	"qwenrotate-go/internal/config"
	"qwenrotate-go/internal/rotation"
	"qwenrotate-go/internal/runner"
	"qwenrotate-go/internal/setup"
)

// Options carries the resolved configuration into subcommands. The root
// command fills Config in its PersistentPreRunE, before any RunE fires.
type Options struct {
	Config *config.Config
}

func (o *Options) manager() *rotation.Manager {
	return rotation.NewManager(rotation.Options{
		RootDir:       o.Config.RootDir,
		LockPath:      o.Config.LockPath,
		LockTimeout:   time.Duration(o.Config.LockTimeoutSec) * time.Second,
		TotalAccounts: o.Config.TotalAccounts,
	})
}

func (o *Options) toolRunner() *runner.Runner {
	return runner.NewRunner(o.Config.ToolBinary, time.Duration(o.Config.ToolTimeoutSec)*time.Second)
}

func (o *Options) onboarder(mgr *rotation.Manager) *setup.Onboarder {
	return setup.NewOnboarder(mgr, o.Config.ToolBinary)
}
