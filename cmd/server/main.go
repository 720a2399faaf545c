package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "wonderwomen/internal/domain/common"
	_ "wonderwomen/internal/domain/forum"
	_ "wonderwomen/internal/domain/notification"
	_ "wonderwomen/internal/domain/user"
	"wonderwomen/internal/pkg/config"
	"wonderwomen/internal/pkg/middleware"
	"wonderwomen/internal/pkg/registry"
	"wonderwomen/internal/pkg/worker"
	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"
	"wonderwomen/pkg/database"
	"wonderwomen/pkg/logger"
	baseModel "wonderwomen/pkg/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadConfig()
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	storage, err := kv.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	if sb, ok := storage.(kv.SQLBacked); ok {
		sqlDB, err := sb.SQLDB()
		if err != nil {
			return err
		}
		monitor, err := database.NewPoolMonitor(cfg.Storage.Driver, sqlDB, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		go monitor.Run(ctx)
	}

	pool := worker.NewWorkerPool(storage, cfg.Storage.RetryWorkers, cfg.Storage.RetryQueue, cfg.Storage.MaxRetry)
	pool.Start()
	defer pool.Stop()

	st := store.New(storage,
		store.WithPrefix(cfg.Storage.Prefix),
		store.WithRetryPool(pool),
	)
	if _, err := st.Load(ctx); err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Trace-ID"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	)

	if err := registry.InitModules(&registry.ModuleContext{
		Store:  st,
		Router: r,
		IDs:    baseModel.UUIDGenerator{},
		Clock:  time.Now,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// 退出前同步写一次，避免重试队列中的数据丢失
	if err := st.Save(shutdownCtx, st.Snapshot()); err != nil {
		logger.Log.Warn("final save failed", zap.Error(err))
	}
	return nil
}
