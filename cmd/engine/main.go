// Command engine runs the trading core as a live process: it loads the
// operational and declarative configuration, builds the catalog, state
// store and engine, wires one execution adapter per configured exchange,
// starts the HTTP control surface and the reliability scheduler, and
// drains the merged input stream until an OS signal or a shutdown command
// stops it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenquant/tradecore/internal/adapter/mockvenue"
	"github.com/lumenquant/tradecore/internal/audit"
	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/clients/tradernet"
	"github.com/lumenquant/tradecore/internal/clock"
	"github.com/lumenquant/tradecore/internal/config"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/engine"
	"github.com/lumenquant/tradecore/internal/execution"
	"github.com/lumenquant/tradecore/internal/reliability"
	"github.com/lumenquant/tradecore/internal/server"
	"github.com/lumenquant/tradecore/internal/state"
	"github.com/rs/zerolog"

	loggerpkg "github.com/lumenquant/tradecore/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading operational config: %w", err)
	}

	log := loggerpkg.New(loggerpkg.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	loggerpkg.SetGlobalLogger(log)

	doc, err := config.LoadDocument(cfg.DocumentPath)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", cfg.DocumentPath, err)
	}

	specs, err := doc.BuildCatalogSpecs()
	if err != nil {
		return fmt.Errorf("building catalog specs: %w", err)
	}
	cat, err := catalog.New(specs)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	st := state.New(cat)
	st.SetTrading(doc.InitialTradingState())

	exchanges := make([]domain.ExchangeIndex, cat.NumExchanges())
	for i := range exchanges {
		exchanges[i] = domain.ExchangeIndex(i)
	}
	router := execution.NewRouter(exchanges, 64, 256)
	defer router.Close()

	auditStream := audit.NewStream(clock.RealClock{})
	if doc.AuditEnabled {
		persister, err := audit.NewPersister(doc.AuditPersistDSN)
		if err != nil {
			return fmt.Errorf("opening audit ledger: %w", err)
		}
		sub := auditStream.Subscribe(256)
		go persistAuditRecords(log, persister, sub)
	}

	strat, err := doc.BuildStrategy()
	if err != nil {
		return fmt.Errorf("resolving strategy: %w", err)
	}
	chk, err := doc.BuildRisk()
	if err != nil {
		return fmt.Errorf("resolving risk checker: %w", err)
	}

	eng := engine.New(st, engine.Config{
		Strategy:        strat,
		Risk:            chk,
		Router:          router,
		Audit:           auditStream,
		Clock:           clock.RealClock{},
		InFlightTimeout: cfg.InFlightTimeout,
		Logger:          log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closers, err := wireAdapters(ctx, doc, cat, router, log)
	if err != nil {
		return fmt.Errorf("wiring adapters: %w", err)
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	commands := make(chan engine.Input, 64)

	srv := server.New(server.Config{
		Log:      log,
		State:    st,
		Catalog:  cat,
		Commands: commands,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	monitoring, err := reliability.NewMonitoringService(reliability.DefaultThresholds(), log)
	if err != nil {
		return fmt.Errorf("starting process monitoring: %w", err)
	}
	sched := reliability.New(log)
	if err := sched.AddJob("@every 30s", reliability.ProcessHealthJob{Monitoring: monitoring}); err != nil {
		return fmt.Errorf("scheduling process health job: %w", err)
	}
	if err := sched.AddJob("@every 15s", reliability.SweepJob{Sweep: eng.SweepStaleInFlight}); err != nil {
		return fmt.Errorf("scheduling in-flight sweep job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	input := mergeInputs(ctx, router.Inbound(), commands)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	runErr := eng.Run(ctx, input)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	if runErr != nil && runErr != context.Canceled {
		return fmt.Errorf("engine run: %w", runErr)
	}
	return nil
}

// mergeInputs fans account events off the router and commands from the
// HTTP surface into the single stream the engine's Run loop drains. It never reorders within a source; interleaving
// across sources follows arrival order, which is the only ordering the
// engine's single-threaded loop requires (§5).
func mergeInputs(ctx context.Context, accounts <-chan domain.AccountEvent, commands <-chan engine.Input) <-chan engine.Input {
	out := make(chan engine.Input)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-accounts:
				if !ok {
					accounts = nil
					continue
				}
				select {
				case out <- engine.AccountInput(ev):
				case <-ctx.Done():
					return
				}
			case cmd, ok := <-commands:
				if !ok {
					commands = nil
					continue
				}
				select {
				case out <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type closerFunc func()

// wireAdapters starts one execution adapter per configured exchange,
// returning cleanup funcs the caller must run on shutdown.
func wireAdapters(ctx context.Context, doc *config.Document, cat *catalog.Catalog, router *execution.Router, log zerolog.Logger) ([]closerFunc, error) {
	var closers []closerFunc
	for _, binding := range doc.Adapters {
		exIdx, err := cat.IndexExchange(domain.ExchangeID(binding.Exchange))
		if err != nil {
			return nil, fmt.Errorf("adapter binding %q: %w", binding.Exchange, err)
		}

		switch binding.Kind {
		case "mockvenue":
			url := binding.Options["url"]
			var mockServer *mockvenue.Server
			if url == "" {
				mockServer = mockvenue.NewServer(log)
				url = mockServer.URL()
			}
			adapter, err := mockvenue.NewAdapter(exIdx, url, router, log)
			if err != nil {
				if mockServer != nil {
					mockServer.Close()
				}
				return nil, fmt.Errorf("dialing mockvenue for %q: %w", binding.Exchange, err)
			}
			go func() {
				if err := adapter.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Str("exchange", binding.Exchange).Msg("mockvenue adapter stopped")
				}
			}()
			closers = append(closers, func() {
				adapter.Close()
				if mockServer != nil {
					mockServer.Close()
				}
			})

		case "tradernet":
			client := tradernet.NewClient(binding.Options["url"], log)
			client.SetCredentials(binding.Options["api_key"], binding.Options["api_secret"])
			adapter := &tradernet.Adapter{
				Exchange:     exIdx,
				Client:       client,
				Catalog:      cat,
				Router:       router,
				PollInterval: 30 * time.Second,
			}
			go func() {
				if err := adapter.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Str("exchange", binding.Exchange).Msg("tradernet adapter stopped")
				}
			}()
			closers = append(closers, func() {})

		default:
			return nil, fmt.Errorf("adapter binding %q: unknown kind %q", binding.Exchange, binding.Kind)
		}
	}
	return closers, nil
}

func persistAuditRecords(log zerolog.Logger, persister *audit.Persister, records <-chan audit.Record) {
	for rec := range records {
		if err := persister.Persist(rec); err != nil {
			log.Error().Err(err).Uint64("sequence", rec.Sequence).Msg("failed to persist audit record")
		}
	}
}
