package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depalletconsole/frontend/login"
	"depalletconsole/infrastructure/backend"
	"depalletconsole/infrastructure/cache"
	"depalletconsole/infrastructure/config"
	"depalletconsole/infrastructure/depalletizer"
	"depalletconsole/infrastructure/eventlog"
	httpserver "depalletconsole/infrastructure/http"
	"depalletconsole/infrastructure/notify"
	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/infrastructure/workflow"
)

const sessionPurgeInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(ctx, db, os.Getenv("MIGRATIONS_DIR")); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	if cfg.OperatorPassword != "" {
		if err := login.UpsertOperator(ctx, db, "operator", cfg.OperatorPassword); err != nil {
			log.Fatalf("seed operator: %v", err)
		}
	}

	events := eventlog.New(cfg.EventLogLimit, eventlog.WithStore(eventlog.NewSQLiteStore(db)))
	if err := events.Resume(ctx); err != nil {
		log.Fatalf("resume event log: %v", err)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout, backend.WithDispatchTimeout(cfg.DispatchTimeout))

	orch := depalletizer.New(client, events,
		depalletizer.WithSlots(slotProvider(cfg, client)),
		depalletizer.WithScanDelay(cfg.ScanDelay),
	)

	publisher := outcomePublisher(cfg)
	defer publisher.Close()

	ctrl := workflow.New(client, orch, events,
		workflow.WithPublisher(publisher),
		workflow.WithStatusLabels(cfg.StatusLabels),
		workflow.WithApproveRequiresStatusWrite(cfg.ApproveRequiresStatusWrite),
	)

	server := httpserver.NewServer(cfg.Addr, db, cache.NewSessionCache(), ctrl, events, client)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	go server.PurgeSessions(ctx, sessionPurgeInterval)
	slog.Info("depalletizer console listening", slog.String("addr", cfg.Addr), slog.String("backend", cfg.BackendURL))

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func slotProvider(cfg config.Config, client *backend.Client) depalletizer.SlotProvider {
	static := depalletizer.StaticSlots(cfg.SlotCandidates)
	if cfg.SlotSource == config.SlotSourceRemote {
		return depalletizer.RemoteSlots{Fetcher: client, Fallback: static}
	}
	return static
}

func outcomePublisher(cfg config.Config) notify.Publisher {
	if cfg.AMQPURL == "" {
		return notify.Noop{}
	}
	p, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Error("amqp unavailable; outcome events disabled", slog.Any("err", err))
		return notify.Noop{}
	}
	return p
}
