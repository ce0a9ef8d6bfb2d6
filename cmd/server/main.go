package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rmontes/storefront/internal/adapter/auth"
	"github.com/rmontes/storefront/internal/adapter/handler"
	"github.com/rmontes/storefront/internal/adapter/storage"
	"github.com/rmontes/storefront/internal/config"
	"github.com/rmontes/storefront/internal/core/service"
	"github.com/rmontes/storefront/internal/observability"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, "storefront", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Adapters
	catalogRepo := storage.NewMySQLCatalog(db)
	cartRepo := storage.NewMySQLCart(db)
	ticketRepo := storage.NewMySQLTicket(db)
	redisStore := storage.NewRedisStore(rdb)

	// Services
	checkoutSvc := service.NewCheckoutService(catalogRepo, cartRepo, ticketRepo, redisStore, logger)
	cartSvc := service.NewCartService(cartRepo, catalogRepo, logger)
	catalogSvc := service.NewCatalogService(catalogRepo, logger)
	ticketSvc := service.NewTicketService(ticketRepo)

	// Identity resolution: bearer token first, session fallback
	resolver := auth.NewResolver(auth.NewTokenResolver([]byte(cfg.JWTSecret)), redisStore)

	// HTTP
	router := gin.New()
	router.Use(gin.Recovery())

	httpHandler := handler.NewHTTPHandler(checkoutSvc, cartSvc, catalogSvc, ticketSvc, logger)
	httpHandler.Register(router, handler.Authenticate(resolver))

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", zap.Error(err))
	}

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
