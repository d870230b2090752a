// Command resolverd runs the resolution daemon: a registry of pluggable
// resolve.Resolver backends (the reference recursive-stub backend by
// default), the RFC 3263 SIP target resolver built on top of it, a
// read-only admin introspection API, and an optional diagnostic query
// audit trail.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vectorpbx/dnsresolver/internal/adminapi"
	"github.com/vectorpbx/dnsresolver/internal/backend/caching"
	"github.com/vectorpbx/dnsresolver/internal/backend/recursive"
	"github.com/vectorpbx/dnsresolver/internal/config"
	"github.com/vectorpbx/dnsresolver/internal/health"
	"github.com/vectorpbx/dnsresolver/internal/logging"
	"github.com/vectorpbx/dnsresolver/internal/querylog"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/sipresolve"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file (defaults to RESOLVERD_CONFIG or built-in defaults)")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flags.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("resolverd starting",
		"recursive_config", cfg.Recursive.ConfigPath,
		"admin_enabled", cfg.Admin.Enabled,
		"querylog_enabled", cfg.QueryLog.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := resolve.NewRegistry()
	engine := resolve.NewEngine(registry, logger)

	recursiveCfg, err := recursive.LoadConfig(cfg.Recursive.ConfigPath)
	if err != nil {
		return fmt.Errorf("load recursive backend config: %w", err)
	}

	// finalCompleter is what the innermost backend chain eventually reports
	// to once the cache (if any) and the query log (if any) have had a
	// chance to observe the result.
	var finalCompleter interface {
		Completed(q *resolve.Query)
	} = engine

	var cacheBackend *caching.Backend
	if cfg.Cache.Enabled {
		cacheBackend = caching.New("cache", cfg.Cache.Priority, cfg.Cache.MaxEntries, engine, logger)
		finalCompleter = cacheBackend
		logger.Info("result cache enabled", "priority", cfg.Cache.Priority, "max_entries", cfg.Cache.MaxEntries)
	}

	var recursiveBackend *recursive.Backend
	var store *querylog.Store
	var registered resolve.Resolver

	if cfg.QueryLog.Enabled {
		store, err = querylog.Open(cfg.QueryLog.DBPath)
		if err != nil {
			return fmt.Errorf("open query log: %w", err)
		}
		defer store.Close()
		logger.Info("query log enabled", "path", cfg.QueryLog.DBPath)

		recording := querylog.NewRecordingBackend(store, finalCompleter, logger)
		recursiveBackend = recursive.New(cfg.Recursive.Name, cfg.Recursive.Priority, recursiveCfg, recording, logger)
		recording.SetInner(recursiveBackend)
		registered = recording
	} else {
		recursiveBackend = recursive.New(cfg.Recursive.Name, cfg.Recursive.Priority, recursiveCfg, finalCompleter, logger)
		registered = recursiveBackend
	}

	if cacheBackend != nil {
		cacheBackend.SetInner(registered)
		if err := registry.Register(cacheBackend); err != nil {
			return fmt.Errorf("register cache backend: %w", err)
		}
	} else if err := registry.Register(registered); err != nil {
		return fmt.Errorf("register recursive backend: %w", err)
	}

	sipResolver := sipresolve.New(engine, func(fn func()) { fn() },
		sipresolve.WithMaxAddresses(cfg.SIP.MaxAddresses),
		sipresolve.WithLogger(logger),
	)

	var adminSrv *adminapi.Server
	if cfg.Admin.Enabled {
		adminSrv = adminapi.New(cfg.Admin, registry, health.NewReporter(), recursiveBackend, cacheBackend, sipResolver, logger)
		logger.Info("admin api starting", "addr", adminSrv.Addr())
		go func() {
			serveErr := adminSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			logger.Error("admin api error", "err", serveErr)
			cancel()
		}()
	}

	<-ctx.Done()
	logger.Info("resolverd shutting down")

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}
