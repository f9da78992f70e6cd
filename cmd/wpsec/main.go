package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andyle182810/wpsec/cli"
	_ "github.com/joho/godotenv/autoload"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Run(ctx, os.Args[1:], cli.Options{
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		Out:           os.Stdout,
		Err:           os.Stderr,
		Environment:   nil,
		InstallLogger: true,
	})

	stop()
	os.Exit(code)
}
