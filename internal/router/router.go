package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tillpay/config"
	"tillpay/internal/auth"
	"tillpay/internal/domain"
	"tillpay/internal/events"
	"tillpay/internal/fraud"
	"tillpay/internal/handler"
	"tillpay/internal/idempotency"
	"tillpay/internal/middleware"
	"tillpay/internal/pos"
	"tillpay/internal/provider"
	"tillpay/internal/queue"
	"tillpay/internal/repository"
	"tillpay/internal/store/memory"
	"tillpay/internal/ws"
)

// stores groups the per-concern persistence seams. A nil db selects the
// in-memory implementations, which is the default for a single till.
type stores struct {
	idem      idempotency.RecordStore
	attempts  fraud.AttemptStore
	locks     fraud.LockStore
	drafts    queue.DraftStore
	txs       queue.TransactionStore
	operators auth.OperatorStore
}

func newStores(db *gorm.DB) stores {
	if db == nil {
		return stores{
			idem:      memory.NewIdempotencyStore(),
			attempts:  memory.NewAttemptStore(),
			locks:     memory.NewLockStore(),
			drafts:    memory.NewDraftStore(),
			txs:       memory.NewTransactionStore(),
			operators: memory.NewOperatorStore(),
		}
	}
	return stores{
		idem:      repository.NewIdempotencyRepository(db),
		attempts:  repository.NewAttemptRepository(db),
		locks:     repository.NewLockRepository(db),
		drafts:    repository.NewDraftRepository(db),
		txs:       repository.NewTransactionRepository(db),
		operators: repository.NewOperatorRepository(db),
	}
}

// Setup wires stores, services and handlers into the API engine. The
// returned manager must be Run by the caller; the bus must be Closed on
// shutdown.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *queue.Manager, *events.Bus, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	st := newStores(db)

	prov, err := provider.New(cfg.Payment.Provider, provider.Config{
		TokenExpiry: cfg.Payment.TokenExpiry,
		Latency:     cfg.Payment.MockLatency,
		FraudRate:   cfg.Payment.MockFraudRate,
		FailRate:    cfg.Payment.MockFailRate,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	idemStore := idempotency.New(st.idem, cfg.Idempotency.TTL)
	tracker := fraud.NewTracker(st.attempts, st.locks, fraud.Config{
		MaxFailedAttempts: cfg.Security.MaxFailedAttempts,
		LockoutDuration:   cfg.Security.LockoutDuration,
		FraudWindow:       cfg.Security.FraudWindow,
	})
	bus := events.NewBus()
	manager, err := queue.NewManager(st.drafts, st.txs, prov, idemStore, bus, queue.Config{
		RetryInterval: cfg.Queue.RetryInterval,
		MaxAttempts:   cfg.Queue.MaxAttempts,
		RetentionDays: cfg.Queue.RetentionDays,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	posSvc := pos.NewService(prov, idemStore, tracker)
	authSvc := auth.NewService(cfg, st.operators)
	authSvc.SeedAdmin()

	hub := ws.NewHub()
	_, evCh := bus.Subscribe(64)
	go hub.Pump(evCh)

	authHandler := handler.NewAuthHandler(authSvc)
	posHandler := handler.NewPOSHandler(posSvc)
	draftHandler := handler.NewDraftHandler(manager)
	queueHandler := handler.NewQueueHandler(manager)
	lockHandler := handler.NewLockHandler(tracker)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "provider": cfg.Payment.Provider})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		posGroup := api.Group("/pos")
		posGroup.Use(authMw)
		{
			posGroup.POST("/charge", posHandler.Charge)
			posGroup.POST("/tokenize", posHandler.Tokenize)
			posGroup.POST("/refund", posHandler.Refund)
		}

		drafts := api.Group("/drafts")
		drafts.Use(authMw)
		{
			drafts.POST("", draftHandler.Create)
			drafts.GET("", draftHandler.List)
			drafts.POST("/:id/materialize", draftHandler.Materialize)
			drafts.DELETE("/:id", draftHandler.Discard)
		}

		qGroup := api.Group("/queue")
		qGroup.Use(authMw)
		{
			qGroup.GET("/pending", queueHandler.PendingCount)
			qGroup.POST("/process", queueHandler.Process)
		}

		api.GET("/locks", authMw, lockHandler.Status)
		api.DELETE("/locks", authMw, adminMw, lockHandler.Clear)
		api.GET("/fraud/stats", authMw, adminMw, lockHandler.Stats)

		api.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, hub))
	}

	return r, manager, bus, nil
}
