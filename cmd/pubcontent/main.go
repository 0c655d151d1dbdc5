package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/eringen/pubcontent/output"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := c.rootCmd()
	root.AddCommand(c.checkCmd())
	root.AddCommand(c.indexCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(c.newCmd())
	root.AddCommand(versionCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		output.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
