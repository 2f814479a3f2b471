package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/coursefetch/internal/app"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		// the first signal cancels the run, the second one kills it
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()

	code := app.New(version).Run(ctx, os.Args)

	signal.Stop(c)
	cancel()
	os.Exit(code)
}
