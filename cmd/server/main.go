package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bizzytrack/backend/internal/audit"
	audithandler "bizzytrack/backend/internal/audit/handler"
	auditrepo "bizzytrack/backend/internal/audit/repository"
	"bizzytrack/backend/internal/audit/stream"
	businessrepo "bizzytrack/backend/internal/business/repository"
	"bizzytrack/backend/internal/config"
	customerhandler "bizzytrack/backend/internal/customer/handler"
	customerrepo "bizzytrack/backend/internal/customer/repository"
	customerservice "bizzytrack/backend/internal/customer/service"
	"bizzytrack/backend/internal/db"
	healthhandler "bizzytrack/backend/internal/health/handler"
	identityhandler "bizzytrack/backend/internal/identity/handler"
	identityrepo "bizzytrack/backend/internal/identity/repository"
	identityservice "bizzytrack/backend/internal/identity/service"
	"bizzytrack/backend/internal/logging"
	"bizzytrack/backend/internal/metrics"
	"bizzytrack/backend/internal/platform/timefmt"
	"bizzytrack/backend/internal/policy/engine"
	"bizzytrack/backend/internal/security"
	"bizzytrack/backend/internal/server"
	"bizzytrack/backend/internal/telemetry/otel"
	userrepo "bizzytrack/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.Env == "development",
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	secret, err := security.LoadSecret(cfg.JWTSecret, cfg.JWTSecretFile)
	if err != nil {
		logger.Fatal("jwt secret", zap.Error(err))
	}
	tokens, err := security.NewTokenProvider(secret, cfg.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		logger.Fatal("token provider", zap.Error(err))
	}

	conn, err := db.Open(db.PoolConfig{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	gw := db.NewGateway(conn, logger)
	defer func() { _ = gw.Close() }()

	ctx := context.Background()
	authz, err := engine.NewOPAAuthorizer(ctx, "")
	if err != nil {
		logger.Fatal("policy", zap.Error(err))
	}

	providers, err := otel.NewProviders(ctx, otel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "bizzytrack-api",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatal("otel", zap.Error(err))
	}
	providers.SetGlobal()

	m := metrics.New()
	kafka := stream.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic)
	publishers := auditPublishers(kafka, providers)

	audits := auditrepo.NewPostgresRepository(gw)
	recorder := audit.NewAsyncRecorder(audits, cfg.AuditQueueSize, cfg.AuditWorkers,
		audit.WithLogger(logger),
		audit.WithMetrics(m),
		audit.WithPublishers(publishers...),
		audit.WithWriteTimeout(cfg.AuditTimeout()),
	)

	businesses := businessrepo.NewPostgresRepository(gw)
	users := userrepo.NewPostgresRepository(gw)
	identity := identityservice.NewService(
		users,
		businesses,
		identityrepo.NewPostgresRegistrar(gw),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		recorder,
	)
	customers := customerservice.NewService(customerrepo.NewPostgresRepository(gw), recorder)

	handler := server.NewRouter(server.Deps{
		Tokens:             tokens,
		Logger:             logger,
		Metrics:            m,
		Health:             healthhandler.NewHandler(gw, authz, logger),
		Identity:           identityhandler.NewHandler(identity, authz, logger),
		Customers:          customerhandler.NewHandler(customers, authz, logger),
		Audit:              audithandler.NewHandler(audits, businesses, authz, timefmt.New(cfg.AppTimezone), logger),
		CORSOrigins:        cfg.CORSOriginsList(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Tracing:            providers.Exporting,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Warn("audit recorder did not drain", zap.Error(err))
	}
	if kafka != nil {
		if err := kafka.Close(); err != nil {
			logger.Warn("kafka close", zap.Error(err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("http server stopped")
}

// auditPublishers returns the enabled stream publishers. A nil kafka means streaming is off and must
// not reach the recorder as a typed nil.
func auditPublishers(kafka *stream.KafkaPublisher, providers *otel.Providers) []stream.Publisher {
	var out []stream.Publisher
	if kafka != nil {
		out = append(out, kafka)
	}
	if providers != nil && providers.Exporting {
		if p := stream.NewOTelPublisher(providers.LoggerProvider); p != nil {
			out = append(out, p)
		}
	}
	return out
}
