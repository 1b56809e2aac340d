// Command roast normalizes analysis processes to an integrated luminosity
// and reports their cut-flows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
