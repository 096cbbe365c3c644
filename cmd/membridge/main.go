// membridge - tool-invocation server for a memory-analysis host.
// Entry point: flag parsing and service wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"membridge/internal/api"
	"membridge/internal/audit"
	"membridge/internal/dispatch"
	"membridge/internal/host"
	"membridge/internal/infra/config"
	"membridge/internal/infra/eventbus"
	"membridge/internal/infra/sqlite"
	"membridge/internal/server"
	"membridge/internal/tool"
	"membridge/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("membridge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to YAML config file")
	demo := fs.Bool("demo", false, "Seed a simulated target process for local experimentation")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if err := serve(*configPath, *demo); err != nil {
		log.Printf("fatal: %v", err)
		return 1
	}
	return 0
}

func serve(configPath string, demo bool) error {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()

	if cfg.AuditDBPath != "" {
		db, err := sqlite.NewDB(cfg.AuditDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := sqlite.MigrateUp(db); err != nil {
			return err
		}
		go audit.NewService(db).Start(ctx, bus)
	}

	// MemHost stands in for a real debugger backend; swap the Host
	// implementation here to bridge an actual analysis engine.
	memHost := host.NewMemHost()
	if demo {
		memHost.AddProcess(4242, "demo-target", 0x00400000, demoImage())
		log.Printf("demo target seeded as pid 4242")
	}

	registry := tool.NewRegistry()
	for _, p := range host.Providers(memHost) {
		registry.Register(p)
	}
	log.Printf("registered %d tools", registry.Len())

	executor := dispatch.New()
	executor.Start()
	defer executor.Stop()

	router := api.NewRouter(cfg, registry, executor, bus)
	return server.New(cfg, router).Run(ctx)
}

// demoImage is a small recognizable byte layout for the --demo target.
func demoImage() []byte {
	img := make([]byte, 4096)
	copy(img, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	copy(img[0x100:], []byte("membridge demo target"))
	return img
}

func printHelp(out io.Writer) {
	helpText := `membridge - tool-invocation server for a memory-analysis host

Usage:
  membridge [options]

Options:
  --version        Show version information
  --help           Show this help message
  --config PATH    Load configuration from a YAML file
  --demo           Seed a simulated target process

Environment variables:
  MEMBRIDGE_HOST            Listen host (default 127.0.0.1)
  MEMBRIDGE_PORT            Listen port (default 8321)
  MEMBRIDGE_PUBLIC_URL      Base URL advertised on the SSE endpoint event
  MEMBRIDGE_PING_INTERVAL   SSE keep-alive period (default 30s)
  MEMBRIDGE_SHUTDOWN_GRACE  Shutdown grace period (default 10s)
  MEMBRIDGE_AUDIT_DB        Audit SQLite path (default :memory:, empty disables)
  MEMBRIDGE_SERVER_NAME     Name advertised in the initialize result`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
