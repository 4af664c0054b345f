// seed creates a demo business with an owner and two customers through the regular services,
// so the audit trail is populated too. Idempotent: does nothing if the demo owner already exists.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"bizzytrack/backend/internal/audit"
	auditrepo "bizzytrack/backend/internal/audit/repository"
	businessrepo "bizzytrack/backend/internal/business/repository"
	"bizzytrack/backend/internal/config"
	customerdomain "bizzytrack/backend/internal/customer/domain"
	customerrepo "bizzytrack/backend/internal/customer/repository"
	customerservice "bizzytrack/backend/internal/customer/service"
	"bizzytrack/backend/internal/db"
	identityrepo "bizzytrack/backend/internal/identity/repository"
	identityservice "bizzytrack/backend/internal/identity/service"
	"bizzytrack/backend/internal/logging"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/security"
	"bizzytrack/backend/internal/server/middleware"
	userrepo "bizzytrack/backend/internal/user/repository"
)

const (
	demoBusiness = "Demo Shop"
	demoEmail    = "owner@demo.local"
	demoPassword = "password123"
)

var demoCustomers = []customerdomain.Input{
	{Name: "Jane Wanjiku", Email: "jane@example.com", Phone: "+254700000001", Address: "Moi Avenue, Nairobi"},
	{Name: "Peter Otieno", Email: "peter@example.com", Phone: "+254700000002", Notes: "Prefers SMS receipts"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: true})
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
	conn, err := db.Open(db.PoolConfig{DSN: cfg.DSN()})
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	gw := db.NewGateway(conn, logger)
	defer func() { _ = gw.Close() }()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(gw)
	existing, err := users.GetByEmail(ctx, demoEmail)
	if err != nil {
		logger.Fatal("lookup demo owner", zap.Error(err))
	}
	if existing != nil {
		logger.Info("seed: demo data already present", zap.String("business_id", existing.BusinessID))
		return
	}

	recorder := audit.NewSyncRecorder(auditrepo.NewPostgresRepository(gw), audit.WithLogger(logger))
	identity := identityservice.NewService(
		users,
		businessrepo.NewPostgresRepository(gw),
		identityrepo.NewPostgresRegistrar(gw),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		recorder,
	)
	res, err := identity.Register(ctx, identityservice.RegisterInput{
		BusinessName: demoBusiness,
		Currency:     "KES",
		Timezone:     "Africa/Nairobi",
		OwnerName:    "Demo Owner",
		Email:        demoEmail,
		Password:     demoPassword,
	})
	if err != nil {
		logger.Fatal("register demo business", zap.Error(err))
	}

	ownerCtx := middleware.WithRequestContext(ctx, middleware.RequestContext{
		BusinessID: res.Business.ID,
		UserID:     res.User.ID,
		Role:       rbac.RoleOwner,
		Email:      res.User.Email,
		UserAgent:  "bizzytrack-seed",
	})
	customers := customerservice.NewService(customerrepo.NewPostgresRepository(gw), recorder)
	for _, in := range demoCustomers {
		c, err := customers.Create(ownerCtx, in)
		if err != nil {
			logger.Fatal("create demo customer", zap.String("name", in.Name), zap.Error(err))
		}
		logger.Info("seed: customer created", zap.String("customer_id", c.ID))
	}

	logger.Info("seed: done",
		zap.String("business_id", res.Business.ID),
		zap.String("email", demoEmail),
		zap.String("password", demoPassword),
	)
}
