package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/duamedical/medserve/cmd/medctl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.LoadDeps)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
