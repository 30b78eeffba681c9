package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/streetsupply/wholesale_market/internal/config"
	"github.com/streetsupply/wholesale_market/internal/es"
	"github.com/streetsupply/wholesale_market/internal/httpserver"
	"github.com/streetsupply/wholesale_market/internal/logging"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
	"github.com/streetsupply/wholesale_market/internal/redisx"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	deps := &httpserver.Deps{
		DB:        db,
		JWTSecret: []byte(cfg.JWT_SECRET),
	}

	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		deps.ES = esClient
	} else {
		logger.Warn("elasticsearch disabled, ES_URL not set")
	}

	if cfg.KAFKA_ADDRESS != "" {
		producer := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		defer producer.Close()
		deps.Producer = producer
	} else {
		logger.Warn("kafka disabled, KAFKA_ADDRESS not set")
	}

	if cfg.REDIS_ADDR != "" {
		deps.Redis = redisx.New(cfg.REDIS_ADDR)
	} else {
		logger.Warn("redis disabled, REDIS_ADDR not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, deps)

	go func() {
		logger.Info("listening", "addr", cfg.HTTP_ADDR)
		if err := e.Start(cfg.HTTP_ADDR); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
