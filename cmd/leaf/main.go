package main

import (
	"context"
	"os"
	"os/signal"
)

// Version will be set at build time via -ldflags
var Version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}
