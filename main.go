package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rany1024/CodeMapFree/internal/app"
	mcpserver "github.com/rany1024/CodeMapFree/internal/mcp"
)

// logEmitter writes frontend events to the process log. In stdio MCP mode
// there is no canvas attached, so events are only useful as a trace.
type logEmitter struct{}

func (logEmitter) Emit(_ context.Context, event string, data any) {
	log.Printf("event: %s %v", event, data)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := app.LoadConfig()

	a := app.New(cfg, logEmitter{})
	if err := a.Startup(ctx); err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Shutdown()

	srv := mcpserver.New(a)

	log.Printf("codemap: serving MCP on stdio (diagram %s)", cfg.DiagramPath)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}
