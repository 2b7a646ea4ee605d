package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/malphas-lang/malphas-lang/internal/lsp"
)

// runLSP hands stdio to internal/lsp's pre-existing jsonrpc server, the
// same editor-integration entry point the teacher's own
// cmd/malphas-haruspex wires up for its own diagnostics server. Carried
// over rather than dropped: spec.md has nothing to say about an editor
// protocol (it is not one of its modules), but internal/lsp sits on top
// of the same parser/types front end this CLI already depends on, so it
// costs nothing to keep reachable instead of orphaned.
func runLSP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	srv := lsp.NewServer()
	return srv.Run(ctx)
}
