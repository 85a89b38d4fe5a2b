package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dungeonforge/pkg/api"
	"github.com/matzehuels/dungeonforge/pkg/observability"
	"github.com/matzehuels/dungeonforge/pkg/store"
)

// cleanupInterval is how often expired simulation jobs are purged.
const cleanupInterval = time.Hour

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	observability.NewPrometheus(prometheus.DefaultRegisterer).Install()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.Config.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(context.WithoutCancel(ctx))

	go c.cleanupLoop(ctx, st)

	c.Logger.Info("starting server",
		"cache", c.Config.Cache.Backend,
		"store", c.Config.Store.Backend)
	srv := api.New(runner, st,
		api.WithLogger(c.Logger),
		api.WithJobTTL(c.Config.Server.JobTTL))
	return srv.ListenAndServe(ctx, addr)
}

func (c *CLI) cleanupLoop(ctx context.Context, st store.Store) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.Cleanup(ctx)
			if err != nil {
				c.Logger.Warn("job cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				c.Logger.Debug("removed expired jobs", "count", n)
			}
		}
	}
}
