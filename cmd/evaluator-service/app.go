package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"driftwatch/internal/broker"
	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	"driftwatch/internal/evaluation"
	"driftwatch/internal/logger"
	"driftwatch/pkg/bootstrap"
	"driftwatch/pkg/health"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/metrics"
	"driftwatch/pkg/migrations"
	"driftwatch/pkg/models"
	"driftwatch/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	service        *evaluation.Service
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("evaluator-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initService(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	if err := a.InitBroker("evaluator-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "evaluator-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterEvaluationMetrics()
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
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
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

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redisClient = redisClient

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient

	if a.mongoClient != nil {
		if err := migrations.EnsureMongoCollection(ctx, a.mongoDatabase()); err != nil {
			return fmt.Errorf("failed to ensure decision log collection: %w", err)
		}
	}

	return nil
}

func (a *App) mongoDatabase() *mongo.Database {
	dbName := a.Config.Database.MongoDB.Database
	if dbName == "" {
		dbName = constants.DefaultMongoDBName
	}
	return a.mongoClient.Database(dbName)
}

func (a *App) initService(ctx context.Context) error {
	repo := evaluation.NewRepository(a.db)

	keyPrefix := a.Config.Evaluation.State.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = constants.CacheKeyPrefixState
	}
	stateTTL := time.Duration(a.Config.Evaluation.State.TTLSeconds) * time.Second

	var stateRepo evaluation.StateRepository = evaluation.NewStateRepository(a.redisClient, keyPrefix, stateTTL)
	if a.Config.CircuitBreaker.Enabled {
		stateRepo = evaluation.NewCircuitBreakerStateRepository(stateRepo, a.Config.CircuitBreaker)
	}

	var decisions evaluation.DecisionRepository
	if a.mongoClient != nil {
		decisions = evaluation.NewDecisionRepository(a.mongoDatabase())
	}

	svc := evaluation.NewService(repo, stateRepo, decisions, a.Config.Evaluation, a.Logger)

	if err := svc.ReloadRules(ctx, true); err != nil {
		initCtx := logging.WithServiceName(ctx, "evaluator-service")
		a.Logger.WarnwCtx(initCtx, "Failed to load initial rules",
			"error", err,
		)
	}

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

	configConsumer, err := broker.NewConsumer(a.Config.Broker, a.Logger)
	if err != nil {
		configCtx := logging.WithServiceName(ctx, "evaluator-service")
		a.Logger.WarnwCtx(configCtx, "Failed to create config event consumer, event-driven reload disabled",
			"error", err,
		)
	} else {
		configConsumer.SetServiceName("evaluator-service")
		defer configConsumer.Close()
		configEventHandler := evaluation.NewHandler(a.service, a.Logger)

		g.Go(func() error {
			configCtx := logging.WithServiceName(gCtx, "evaluator-service")
			a.Logger.InfowCtx(configCtx, "Starting config update event consumer",
				"topic", a.Config.Broker.Kafka.ConfigUpdateTopic,
			)
			return configConsumer.Consume(gCtx, a.Config.Broker.Kafka.ConfigUpdateTopic, func(cCtx context.Context, msg broker.Message) error {
				return configEventHandler.HandleConfigUpdateEvent(cCtx, msg)
			})
		})
	}

	g.Go(func() error {
		return a.service.StartReloader(gCtx)
	})

	inputTopic := a.Config.Broker.Kafka.InputTopic
	if inputTopic == "" {
		inputTopic = constants.DefaultSnapshotsTopic
	}
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage)
	})

	return g.Wait()
}

func (a *App) handleMessage(ctx context.Context, msg broker.Message) error {
	var envelope models.SnapshotEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		a.Logger.ErrorwCtx(ctx, "Malformed snapshot envelope",
			"error", err,
		)
		return err
	}

	decision, err := a.service.EvaluateSnapshot(ctx, envelope.Snapshot)
	if err != nil {
		a.Logger.ErrorwCtx(ctx, "Evaluation error",
			"error", err,
			"scope", envelope.Snapshot.Scope,
		)
		return err
	}

	out := models.DecisionEnvelope{
		ID:        uuid.New().String(),
		Source:    "evaluator-service",
		Decision:  decision,
		Timestamp: time.Now(),
		Metadata: models.Metadata{
			TraceID: envelope.Metadata.TraceID,
			Evaluation: &models.EvaluationInfo{
				EvaluatedAt: decision.EvaluatedAt,
				RuleCount:   len(decision.FiredRules) + len(decision.SkippedRules),
			},
		},
	}

	outputTopic := a.Config.Broker.Kafka.OutputTopic
	if outputTopic == "" {
		outputTopic = constants.DefaultDecisionsTopic
	}

	outMsg, err := broker.NewMessage(out.ID, out.Metadata.TraceID, out)
	if err != nil {
		return err
	}

	if err := a.Producer.Publish(ctx, outputTopic, outMsg); err != nil {
		a.Logger.ErrorwCtx(ctx, "Failed to publish decision",
			"error", err,
			"output_topic", outputTopic,
		)
		return err
	}

	// Cooldown state advances only after the decision is out, so a
	// redelivered message re-fires instead of landing in its own
	// cooldown window.
	if err := a.service.CommitDecision(ctx, decision); err != nil {
		a.Logger.ErrorwCtx(ctx, "Failed to commit decision state",
			"error", err,
			"decision_id", decision.ID,
		)
		return err
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "evaluator-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down evaluator service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

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

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
