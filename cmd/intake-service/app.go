package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"driftwatch/internal/broker"
	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	"driftwatch/internal/intake"
	"driftwatch/internal/logger"
	"driftwatch/pkg/bootstrap"
	"driftwatch/pkg/health"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/metrics"
	"driftwatch/pkg/models"
	"driftwatch/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	service        *intake.Service
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("intake-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	if err := a.initService(); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	if err := a.InitBroker("intake-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "intake-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterIntakeMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) initRedis(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb
	return nil
}

func (a *App) initService() error {
	baseRepo := intake.NewRepository(a.redis)

	var repo intake.Repository
	if a.Config.CircuitBreaker.Enabled {
		repo = intake.NewCircuitBreakerRepository(baseRepo, a.Config.CircuitBreaker)
		initCtx := logging.WithServiceName(context.Background(), "intake-service")
		a.Logger.InfowCtx(initCtx, "Circuit breaker enabled for intake repository")
	} else {
		repo = baseRepo
	}

	svc := intake.NewService(repo, a.Config.Intake, a.Logger)
	a.service = svc
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if a.Config.Broker.Type == "kafka" && a.Config.Broker.Kafka.ConfigUpdateTopic != "" {
		configConsumer, err := broker.NewConsumer(a.Config.Broker, a.Logger)
		if err != nil {
			configCtx := logging.WithServiceName(ctx, "intake-service")
			a.Logger.WarnwCtx(configCtx, "Failed to create config event consumer, event-driven reload disabled",
				"error", err,
			)
		} else {
			configConsumer.SetServiceName("intake-service")
			defer configConsumer.Close()
			configEventHandler := intake.NewHandler(a.service, a.Logger)

			g.Go(func() error {
				configCtx := logging.WithServiceName(gCtx, "intake-service")
				a.Logger.InfowCtx(configCtx, "Starting config update event consumer",
					"topic", a.Config.Broker.Kafka.ConfigUpdateTopic,
				)
				return configConsumer.Consume(gCtx, a.Config.Broker.Kafka.ConfigUpdateTopic, func(cCtx context.Context, msg broker.Message) error {
					return configEventHandler.HandleConfigUpdateEvent(cCtx, msg)
				})
			})
		}
	}

	inputTopic := a.Config.Broker.Kafka.InputTopic
	if inputTopic == "" {
		inputTopic = constants.DefaultObservationsTopic
	}
	outputTopic := a.Config.Broker.Kafka.OutputTopic
	if outputTopic == "" {
		outputTopic = constants.DefaultSnapshotsTopic
	}

	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage(outputTopic))
	})

	return g.Wait()
}

func (a *App) handleMessage(outputTopic string) func(context.Context, broker.Message) error {
	return func(ctx context.Context, msg broker.Message) error {
		var envelope models.ObservationEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			a.Logger.ErrorwCtx(ctx, "Malformed observation envelope",
				"error", err,
			)
			return err
		}

		accepted, snapshot, err := a.service.Process(ctx, envelope)
		if err != nil {
			a.Logger.ErrorwCtx(ctx, "Intake processing error",
				"error", err,
			)
			return err
		}

		if !accepted {
			a.Logger.InfowCtx(ctx, "Observation dropped",
				"scope", envelope.Scope,
			)
			return nil
		}

		out := models.SnapshotEnvelope{
			ID:        uuid.New().String(),
			Source:    "intake-service",
			Snapshot:  snapshot,
			Timestamp: time.Now(),
			Metadata: models.Metadata{
				TraceID: envelope.Metadata.TraceID,
				Deduplication: &models.DeduplicationInfo{
					IsUnique:  true,
					CheckedAt: time.Now(),
				},
			},
		}

		outMsg, err := broker.NewMessage(out.ID, out.Metadata.TraceID, out)
		if err != nil {
			return err
		}

		if err := a.Producer.Publish(ctx, outputTopic, outMsg); err != nil {
			return fmt.Errorf("failed to publish snapshot: %w", err)
		}
		a.Logger.InfowCtx(ctx, "Observation accepted",
			"scope", envelope.Scope,
			"signals", len(snapshot.Signals),
			"output_topic", outputTopic,
		)
		return nil
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "intake-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down intake service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.service != nil {
			a.service.StopCacheMetricsUpdater()
		}

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redis, nil, nil)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
