// Command mailgate answers a mail system's policy delegation request with a
// single verdict: let delivery proceed, or defer it because a dependency of the
// mail store is unhealthy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/moby/sys/reexec"
)

func main() {
	// Isolated probe children re-enter here.
	if reexec.Init() {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
