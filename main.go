package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ezenkico/deploy-commander/stagehand/cmd"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd.SetVersion(version)
	cmd.Execute(ctx)
}
