package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/infra/cache"
	pg "line-fortune-subscription/internal/infra/db/postgres"
	"line-fortune-subscription/internal/infra/easyslip"
	"line-fortune-subscription/internal/infra/line"
	"line-fortune-subscription/internal/infra/logging"
	"line-fortune-subscription/internal/infra/metrics"
	"line-fortune-subscription/internal/infra/promptpay"
	red "line-fortune-subscription/internal/infra/redis"
	"line-fortune-subscription/internal/infra/sched"
	"line-fortune-subscription/internal/infra/web"
	"line-fortune-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	packageRepo := pg.NewPackageRepoCacheDecorator(pg.NewPackageRepo(pool))
	recipientRepo := pg.NewRecipientRepoCacheDecorator(pg.NewRecipientRepo(pool))
	transactionRepo := pg.NewTransactionRepo(pool)
	subscriptionRepo := pg.NewSubscriptionRepo(pool)
	fortuneRepo := pg.NewFortuneRepo(pool)
	adminRepo := pg.NewAdminRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Adapters ----
	identity := line.NewIdentityVerifier(&cfg.Line)
	push := line.NewPushClient(&cfg.Line)
	slips := easyslip.NewClient(&cfg.EasySlip)
	qr := promptpay.NewEncoder()

	// ---- Use cases ----
	subCache := cache.NewSubscriptionCache()
	subUC := usecase.NewSubscriptionUseCase(subscriptionRepo, subCache)
	userUC := usecase.NewUserUseCase(userRepo, subUC, identity, *logger)
	paymentUC := usecase.NewPaymentUseCase(transactionRepo, packageRepo, recipientRepo, subUC, txManager, qr, slips, locker, *logger)
	dispatchUC := usecase.NewDispatchUseCase(fortuneRepo, subUC, push, *logger)
	fortuneUC := usecase.NewFortuneUseCase(fortuneRepo, subUC)
	adminUC := usecase.NewAdminUseCase(adminRepo, *logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Session.JWTSecret, !cfg.Runtime.Dev, cfg.Session.TTL)
	server := web.NewServer(&cfg.Server, userUC, paymentUC, subUC, fortuneUC, adminUC, dispatchUC,
		auth, rateLimiter, push, packageRepo, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Scheduler ----
	scheduler, err := sched.NewScheduler(&cfg.Scheduler, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler init failed")
	}
	dispatchWorker := sched.NewDispatchWorker(dispatchUC, logger)
	expiryWorker := sched.NewExpiryWorker(subUC, logger)
	cacheWorker := sched.NewCacheWorker(subCache, logger)
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context)
	}{
		{cfg.Scheduler.DispatchCron, "daily_dispatch", dispatchWorker.RunOnce},
		{cfg.Scheduler.ExpiryCron, "expiry_sweep", expiryWorker.RunOnce},
		{cfg.Scheduler.CacheSweepCron, "cache_sweep", cacheWorker.RunOnce},
	}
	for _, j := range jobs {
		if err := scheduler.Add(j.spec, j.name, j.run); err != nil {
			logger.Fatal().Err(err).Str("job", j.name).Msg("schedule job failed")
		}
	}
	scheduler.Start()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	scheduler.Stop()
}
