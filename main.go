package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"

	"pego/domain/model"
	"pego/infrastructure/cache"
	paymentclient "pego/infrastructure/clients/payment"
	"pego/infrastructure/configuration"
	"pego/infrastructure/logger"
	"pego/infrastructure/metrics"
	"pego/infrastructure/persistence"
	"pego/infrastructure/pubsub"
	"pego/infrastructure/servicebus"
	httpHandler "pego/interfaces/http"
	"pego/server"
	"pego/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App
	if app.SecretKey == "" {
		logger.GetLogger().Error("SECRET_KEY not configured; tokens will not validate across restarts")
	}
	if err := os.MkdirAll(app.UploadDir, 0o755); err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot create upload directory")
	}

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	if err := persistence.EnsureSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("Schema migration failed")
		os.Exit(1)
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without interaction events")
		mongoDb = nil
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.Redis.Host, configuration.C.Redis.Port),
		configuration.C.Redis.Username,
		configuration.C.Redis.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without caches")
		redisClient = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without events")
		pubSubClient = nil
	}
	eventPublisher := pubsub.NewEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)

	serviceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Service Bus not available - continuing without receipts")
		serviceBusClient = nil
	}
	receiptBus := servicebus.NewReceiptBus(serviceBusClient, configuration.C.ServiceBus.Queue)

	m := metrics.Registry("pego")

	// Repositories
	userRepository := persistence.NewUserRepository(psqlDb)
	roundRepository := persistence.NewRoundRepository(psqlDb)
	videoRepository := persistence.NewVideoRepository(psqlDb)
	ledgerRepository := persistence.NewCreditLedgerRepository(psqlDb)
	sessionRepository := persistence.NewPaymentSessionRepository(psqlDb)
	interactionRepository := persistence.NewInteractionRepository(mongoDb)

	// Caches
	roundCache := cache.NewRoundCache(redisClient)
	leaderboardCache := cache.NewLeaderboardCache(redisClient)
	otpStore := cache.NewOTPStore(redisClient)

	// Payment providers; a missing host leaves the method unavailable.
	providers := map[model.PaymentMethod]paymentclient.IProvider{}
	if configuration.C.Payment.Card.Host != "" {
		providers[model.MethodCardRedirect] = paymentclient.NewCardClient(
			configuration.C.Payment.Card.Host,
			configuration.C.Payment.Card.APIKey,
			configuration.C.Payment.Card.ReturnURL,
		)
	}
	if configuration.C.Payment.QR.Host != "" {
		providers[model.MethodQRTransfer] = paymentclient.NewQRClient(
			configuration.C.Payment.QR.Host,
			configuration.C.Payment.QR.APIKey,
		)
	}

	var oauthConf *oauth2.Config
	if configuration.C.OAuth.Google.ClientID != "" {
		oauthConf = &oauth2.Config{
			ClientID:     configuration.C.OAuth.Google.ClientID,
			ClientSecret: configuration.C.OAuth.Google.ClientSecret,
			RedirectURL:  configuration.C.OAuth.Google.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	// Usecases
	creditUsecase := usecase.NewCreditUsecase(ledgerRepository)
	roundUsecase := usecase.NewRoundUsecase(roundRepository, videoRepository, roundCache, eventPublisher)
	paymentUsecase := usecase.NewPaymentUsecase(
		sessionRepository, ledgerRepository, videoRepository,
		providers, receiptBus, m,
		configuration.C.Payment.CardTTL(), configuration.C.Payment.QRTTL(),
	)
	uploadUsecase := usecase.NewUploadUsecase(
		videoRepository, roundRepository, ledgerRepository, paymentUsecase,
		eventPublisher, m,
		configuration.C.Upload.MaxSizeBytes, configuration.C.Upload.MaxDurationSecs,
	)
	leaderboardUsecase := usecase.NewLeaderboardUsecase(videoRepository, roundRepository, interactionRepository, leaderboardCache)
	authUsecase := usecase.NewAuthUsecase(userRepository, otpStore, oauthConf, app.SecretKey)
	adminUsecase := usecase.NewAdminUsecase(userRepository, videoRepository, roundRepository, creditUsecase, eventPublisher)

	// Handlers
	authHandler := httpHandler.NewAuthHandler(authUsecase)
	uploadHandler := httpHandler.NewUploadHandler(uploadUsecase, app.UploadDir, configuration.C.Upload.MaxSizeBytes)
	paymentHandler := httpHandler.NewPaymentHandler(paymentUsecase, creditUsecase)
	videoHandler := httpHandler.NewVideoHandler(roundUsecase, leaderboardUsecase)
	adminHandler := httpHandler.NewAdminHandler(roundUsecase, adminUsecase)

	if os.Getenv("ENV") == "production" || os.Getenv("ENV") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.InitiateRouter(
		authHandler, uploadHandler, paymentHandler, videoHandler, adminHandler,
		userRepository, app.SecretKey,
	)

	// Payment session expiry sweep
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				sweepCtx, cancelSweep := context.WithTimeout(ctx, 10*time.Second)
				if n, err := paymentUsecase.ExpireStale(sweepCtx); err != nil {
					logger.GetLogger().WithField("error", err).Warn("session expiry sweep failed")
				} else if n > 0 {
					logger.GetLogger().WithField("count", n).Info("expired payment sessions")
				}
				if n, err := uploadUsecase.SweepStalePending(sweepCtx); err != nil {
					logger.GetLogger().WithField("error", err).Warn("stale entry sweep failed")
				} else if n > 0 {
					logger.GetLogger().WithField("count", n).Info("deleted stale pending entries")
				}
				cancelSweep()
			}
		}
	})

	// Leaderboard recompute
	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				refreshCtx, cancelRefresh := context.WithTimeout(ctx, 10*time.Second)
				if err := leaderboardUsecase.RefreshActive(refreshCtx); err != nil && !errors.Is(err, model.ErrNoActiveRound) {
					logger.GetLogger().WithField("error", err).Warn("leaderboard refresh failed")
				}
				cancelRefresh()
			}
		}
	})

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
