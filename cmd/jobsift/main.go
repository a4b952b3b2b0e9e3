// Package main wires together the jobsift scraper binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tlareau/jobsift/internal/artifacts"
	"github.com/tlareau/jobsift/internal/browser"
	"github.com/tlareau/jobsift/internal/config"
	"github.com/tlareau/jobsift/internal/controller"
	"github.com/tlareau/jobsift/internal/detector"
	"github.com/tlareau/jobsift/internal/fetcher"
	"github.com/tlareau/jobsift/internal/logging"
	"github.com/tlareau/jobsift/internal/progress"
	"github.com/tlareau/jobsift/internal/progress/sinks"
	pubsubpublisher "github.com/tlareau/jobsift/internal/publisher/pubsub"
	"github.com/tlareau/jobsift/internal/scrape"
	"github.com/tlareau/jobsift/internal/sink"
	"github.com/tlareau/jobsift/internal/status"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	keyword := flag.String("keyword", "", "Search keyword (required)")
	location := flag.String("location", "", "Location filter")
	posted := flag.String("posted", "", "Posted window: anytime, 24h, 7d, 30d")
	count := flag.Int("count", 0, "Target number of records")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := scrape.SearchRequest{
		Keyword:      *keyword,
		Location:     *location,
		PostedWithin: scrape.PostedWindow(*posted),
		TargetCount:  *count,
	}
	if err := req.Validate(); err != nil {
		logger.Fatal("invalid search request", zap.Error(err))
	}

	if err := run(ctx, cfg, req, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, req scrape.SearchRequest, logger *zap.Logger) error {
	chrome, err := browser.New(browser.Config{
		UserAgent:    cfg.Browser.UserAgent,
		MaxTabs:      cfg.Browser.MaxTabs,
		NavTimeout:   cfg.Browser.NavTimeout(),
		DomainQPS:    cfg.Browser.DomainQPS,
		Headless:     cfg.Browser.Headless,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	}, logger.Named("browser"))
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if closeErr := chrome.Close(context.Background()); closeErr != nil {
			logger.Warn("browser close failed", zap.Error(closeErr))
		}
	}()

	recordSink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	artifactStore, err := buildArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	var probe scrape.Fetcher
	if cfg.Fetcher.Enabled {
		probe = fetcher.New(fetcher.Config{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.Fetcher.FetchTimeout(),
		})
	}

	var publisher scrape.Publisher
	if cfg.PubSub.Topic != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		defer client.Close()
		publisher = pubsubpublisher.New(client)
	}

	hub, closeHub, err := buildProgressHub(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHub()

	ctrl, err := controller.New(controller.Config{
		DetailWorkers:   cfg.Run.DetailWorkers,
		MaxListingPages: cfg.Run.MaxListingPages,
		MaxScrollPasses: cfg.Run.MaxScrollPasses,
		ScrollStep:      cfg.Run.ScrollStep,
		ScrollSettle:    cfg.Run.ScrollSettle(),
		MarkerTimeout:   cfg.Run.MarkerTimeout(),
		TaskTimeout:     cfg.Run.TaskTimeout(),
		MaxAttempts:     cfg.Run.MaxAttempts,
		DetailDelay:     cfg.Run.DetailDelay(),
		PublishTopic:    cfg.PubSub.Topic,
		ArtifactPrefix:  cfg.Run.ArtifactPrefix,
	}, controller.Deps{
		Browser:   chrome,
		Fetcher:   probe,
		Detector:  detector.New(cfg.Detector.MinHTMLBytes, cfg.Detector.Selectors, cfg.Detector.Keywords),
		Sink:      recordSink,
		Artifacts: artifactStore,
		Publisher: publisher,
		Progress:  hub,
		Logger:    logger.Named("controller"),
	})
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}

	statusSrv := status.NewServer(ctrl, logger.Named("status"))
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if srvErr := statusSrv.ListenAndServe(ctx, addr); srvErr != nil {
			logger.Warn("status server stopped", zap.Error(srvErr))
		}
	}()

	summary, err := ctrl.Run(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("scrape complete",
		zap.String("run_id", summary.RunID),
		zap.Int("records", summary.Collected),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (scrape.RecordSink, func(), error) {
	switch cfg.Sink.Mode {
	case config.SinkPostgres:
		pg, err := sink.NewPostgres(ctx, sink.PostgresConfig{
			DSN:      cfg.Sink.Postgres.DSN,
			Table:    cfg.Sink.Postgres.Table,
			MaxConns: cfg.Sink.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres sink: %w", err)
		}
		return pg, pg.Close, nil
	default:
		jl, err := sink.NewJSONL(cfg.Sink.JSONL.Path, logger.Named("sink"))
		if err != nil {
			return nil, nil, fmt.Errorf("jsonl sink: %w", err)
		}
		return jl, func() {
			if closeErr := jl.Close(); closeErr != nil {
				logger.Warn("jsonl sink close failed", zap.Error(closeErr))
			}
		}, nil
	}
}

func buildArtifacts(ctx context.Context, cfg config.Config) (scrape.ArtifactStore, error) {
	switch cfg.Artifacts.Mode {
	case config.ArtifactsNone:
		return nil, nil
	case config.ArtifactsGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		return artifacts.NewGCS(client, artifacts.GCSConfig{Bucket: cfg.Artifacts.GCSBucket})
	default:
		return artifacts.NewLocal(artifacts.LocalConfig{BaseDir: cfg.Artifacts.LocalDir})
	}
}

func buildProgressHub(ctx context.Context, cfg config.Config, logger *zap.Logger) (*progress.Hub, func(), error) {
	var hubSinks []progress.Sink
	var pool *pgxpool.Pool

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus progress sink: %w", err)
	}
	hubSinks = append(hubSinks, promSink)

	if cfg.Progress.LogEvents {
		hubSinks = append(hubSinks, sinks.NewLogSink(logger.Named("progress")))
	}
	if cfg.Progress.PostgresTable != "" && cfg.Sink.Mode == config.SinkPostgres {
		pool, err = pgxpool.New(ctx, cfg.Sink.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("progress pool: %w", err)
		}
		pgSink, err := sinks.NewPostgresSink(pool, cfg.Progress.PostgresTable)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres progress sink: %w", err)
		}
		hubSinks = append(hubSinks, pgSink)
	}

	hub := progress.NewHub(progress.Config{Logger: logger.Named("progress")}, hubSinks...)
	closeHub := func() {
		if err := hub.Close(context.Background()); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
		if pool != nil {
			pool.Close()
		}
	}
	return hub, closeHub, nil
}
