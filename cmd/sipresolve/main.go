// Command sipresolve runs RFC 3263 target resolution for a single SIP
// request-URI host against a configured recursive-stub backend and prints
// the resulting destination list, in preference order.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vectorpbx/dnsresolver/internal/backend/recursive"
	"github.com/vectorpbx/dnsresolver/internal/config"
	"github.com/vectorpbx/dnsresolver/internal/helpers"
	"github.com/vectorpbx/dnsresolver/internal/logging"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/sipresolve"
)

func main() {
	var (
		host       = flag.String("host", "", "target host (required)")
		port       = flag.Int("port", 0, "explicit port, 0 for unspecified")
		secure     = flag.Bool("secure", false, "require TLS (sips:)")
		reliable   = flag.Bool("reliable", false, "require a reliable transport")
		configPath = flag.String("config", "", "path to resolverd's YAML config (defaults to RESOLVERD_CONFIG or built-in defaults)")
		timeout    = flag.Duration("timeout", 10*time.Second, "overall resolution timeout")
	)
	flag.Parse()

	if *host == "" {
		fmt.Fprintln(os.Stderr, "sipresolve: -host is required")
		os.Exit(2)
	}

	cfg, err := config.Load(config.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sipresolve: load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Configure(logging.Config{Level: "WARN"})

	recursiveCfg, err := recursive.LoadConfig(cfg.Recursive.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sipresolve: load recursive backend config: %v\n", err)
		os.Exit(1)
	}

	registry := resolve.NewRegistry()
	engine := resolve.NewEngine(registry, logger)
	backend := recursive.New(cfg.Recursive.Name, cfg.Recursive.Priority, recursiveCfg, engine, logger)
	if err := registry.Register(backend); err != nil {
		fmt.Fprintf(os.Stderr, "sipresolve: register backend: %v\n", err)
		os.Exit(1)
	}

	resolver := sipresolve.New(engine, func(fn func()) { fn() }, sipresolve.WithMaxAddresses(cfg.SIP.MaxAddresses))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	done := make(chan struct{})
	var entries []sipresolve.Entry
	var resolveErr error
	resolver.Resolve(ctx, sipresolve.Target{
		Host:     *host,
		Port:     int(helpers.ClampIntToUint16(*port)),
		Secure:   *secure,
		Reliable: *reliable,
	}, func(e []sipresolve.Entry, err error) {
		entries, resolveErr = e, err
		close(done)
	})

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "sipresolve: timed out")
		os.Exit(1)
	case <-done:
	}

	if resolveErr != nil {
		fmt.Fprintf(os.Stderr, "sipresolve: %v\n", resolveErr)
		os.Exit(1)
	}

	for _, e := range entries {
		fmt.Printf("%-5s %s:%d\n", e.Transport, e.Addr, e.Port)
	}
}
