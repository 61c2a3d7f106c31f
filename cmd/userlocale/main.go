package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		util.Log(ctx).WithError(err).Error("userlocale failed")
		cancel()
		os.Exit(1)
	}
}
