package commands

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qwenrotate-go/internal/runner"
	"qwenrotate-go/internal/service"
)

func NewServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rotation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr := opts.manager()
			tool := opts.toolRunner()
			wrapper := runner.NewWrapper(tool, mgr, opts.Config.MaxRetries)
			srv := service.NewServer(opts.Config, mgr, wrapper, tool)

			err := mgr.WatchSlots(ctx, func(indices []int) {
				log.Infof("account pool changed, %d slots available: %v", len(indices), indices)
			})
			if err != nil {
				log.WithError(err).Warn("slot watcher unavailable")
			}

			return srv.Run(ctx)
		},
	}
}
