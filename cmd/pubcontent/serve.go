package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/output"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation and content API",
		Long: `Indexes the collection once, then serves:
  POST /api/validate   validate front-matter or a Markdown file
  GET  /api/posts      list indexed posts (?tag=)
  GET  /api/posts/:slug/
  GET  /api/tags
  POST /api/reindex    reload the collection
  GET  /report         HTML report of the last load
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Addr = addr
			}

			app := pubcontent.New(cfg)
			output.Info("Listening on " + cfg.Addr)

			errCh := make(chan error, 1)
			go func() { errCh <- app.Start() }()

			select {
			case err := <-errCh:
				_ = app.Close()
				return err
			case <-cmd.Context().Done():
			}

			output.Verbose("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.Echo.Shutdown(ctx); err != nil {
				return err
			}
			if err := <-errCh; err != nil {
				return err
			}
			return app.Close()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
