package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/chunk"
	"github.com/xxxsen/mvector/internal/config"
	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/handler"
	"github.com/xxxsen/mvector/internal/job"
	"github.com/xxxsen/mvector/internal/middleware"
	"github.com/xxxsen/mvector/internal/queue"
	"github.com/xxxsen/mvector/internal/repo"
	"github.com/xxxsen/mvector/internal/schedule"
	"github.com/xxxsen/mvector/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mvector",
		Short: "mvector vector store server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run mvector server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbx, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer dbx.Close()

	probe := db.NewProbe(dbx.DB)
	schema := db.NewSchemaManager(dbx.DB, probe)
	if err := schema.EnsureSchema(ctx, cfg.AI.Dimensions); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	// The index is a performance feature; a partial engine rejecting it
	// does not block startup.
	_ = schema.AddVectorIndex(ctx, 0, db.MetricCosine)

	optionsRepo := repo.NewOptionsRepo(dbx)
	docRepo := repo.NewDocumentRepo(dbx)
	embRepo := repo.NewEmbeddingRepo(dbx, probe)

	migrate := service.NewMigrationService(optionsRepo, embRepo, cfg.AI.Providers)
	if cfg.AI.Provider != "" {
		state, err := migrate.State(ctx)
		if err != nil {
			return fmt.Errorf("read provider state: %w", err)
		}
		if !state.HasActive() {
			if _, err := migrate.Configure(ctx, cfg.AI.Provider, cfg.AI.Model); err != nil {
				return fmt.Errorf("seed provider selection: %w", err)
			}
		}
	}

	splitter := chunk.NewSplitter(cfg.Chunking.MaxWords)
	ingest := service.NewIngestService(docRepo, embRepo, migrate, splitter)
	durable := queue.NewDurableQueue(dbx.DB, ingest, cfg.Queue.BatchSize)
	fallback := queue.NewFallbackQueue(optionsRepo, ingest)
	dispatcher := queue.NewDispatcher(durable, fallback)
	search := service.NewSearchService(embRepo, probe, migrate)
	status := service.NewStatusService(embRepo, schema, probe, dispatcher, migrate, cfg.AI.Dimensions)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewDurableQueueJob(durable, cfg.Queue.DrainLimit), cfg.Queue.DurableCron); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewFallbackQueueJob(fallback, cfg.Queue.DrainLimit), cfg.Queue.FallbackCron); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewOptimizeJob(schema), cfg.Queue.OptimizeCron); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Embed:     handler.NewEmbedHandler(ingest),
		Query:     handler.NewQueryHandler(search, probe),
		Status:    handler.NewStatusHandler(status),
		Documents: handler.NewDocumentHandler(docRepo, dispatcher),
		Admin:     handler.NewAdminHandler(migrate, schema, durable, fallback, cfg.AI.Dimensions, cfg.Queue.DrainLimit),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
