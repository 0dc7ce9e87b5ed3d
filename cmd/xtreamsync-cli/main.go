package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:     "xtreamsync",
		Usage:    "Mirror Xtream Codes VOD libraries as STRM/NFO trees",
		Version:  version,
		Commands: commands(),
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		if errors.Is(err, syncer.ErrStopped) {
			log.Warn("sync interrupted")
			os.Exit(130)
		}
		log.Fatal("application error", "err", err)
	}
}
