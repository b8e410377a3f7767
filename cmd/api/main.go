package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rembayung/waitroom/config"
	grpcDelivery "github.com/rembayung/waitroom/internal/delivery/grpc"
	httpDelivery "github.com/rembayung/waitroom/internal/delivery/http"
	"github.com/rembayung/waitroom/internal/delivery/kafka/producer"
	"github.com/rembayung/waitroom/internal/infra/redis"
	"github.com/rembayung/waitroom/internal/queue"
	repo "github.com/rembayung/waitroom/internal/repository/redis"
	"github.com/rembayung/waitroom/internal/service"
	pkgKafka "github.com/rembayung/waitroom/pkg/kafka"
	pkgLog "github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/util"
)

const (
	healthCheckInterval = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer l.Sync()

	loc, err := util.LoadLocation(cfg.Queue.Timezone)
	if err != nil {
		l.Fatalf(ctx, "Failed to load queue timezone: %v", err)
	}

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(context.Background(), redisCli, l)

	store := repo.NewRedisStore(redisCli)
	tkRepo := repo.NewRedisTicketRepository(store, cfg.Queue.TicketTTL, l)
	ssRepo := repo.NewRedisSessionRepository(store, l)

	prod := producer.NewNopProducer()
	if cfg.Kafka.Enabled {
		kSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
			ClientID:     "waitroom-service",
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kSyncProd, l)
	}
	defer func() {
		if err := prod.Close(); err != nil {
			l.Errorf(context.Background(), "Failed to close Kafka producer: %v", err)
		}
	}()

	// Initialize services
	clock := queue.SystemClock{}
	engine := queue.NewEngine(queue.WithLocation(loc))
	qSvc := service.NewQueueService(engine, tkRepo, clock, prod, l)
	ssSvc := service.NewSessionService(ssRepo, cfg.JWT, cfg.Queue.SessionTTL, clock, l)
	wrSvc := service.NewWaitroomService(qSvc, ssSvc, prod, clock, cfg.Queue, l)

	// http server
	e := httpDelivery.NewServer(httpDelivery.NewHandler(wrSvc, redisCli, l), l)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// gRPC health server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}
	gRpcSrv := grpc.NewServer()
	healthSvc := grpcDelivery.NewHealthService(redisCli, healthCheckInterval, l)
	healthSvc.Register(gRpcSrv)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return healthSvc.Run(gCtx)
	})

	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		if err := gRpcSrv.Serve(lnr); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info(ctx, "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		gRpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(context.Background(), "Server stopped with error: %v", err)
	}

	l.Info(context.Background(), "Server exited")
}
