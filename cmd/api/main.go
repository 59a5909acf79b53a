package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"estatechat/internal/adapter/api"
	"estatechat/internal/adapter/api/handler"
	apimiddleware "estatechat/internal/adapter/api/middleware"
	"estatechat/internal/adapter/api/router"
	"estatechat/internal/adapter/repository"
	domainrepo "estatechat/internal/domain/repository"
	"estatechat/internal/infrastructure/firebase"
	"estatechat/internal/infrastructure/ratelimit"
	"estatechat/internal/infrastructure/websocket"
	"estatechat/internal/usecase"
	"estatechat/pkg/config"
	"estatechat/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		logger.Info("using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsPath != "":
		if _, err := os.Stat(cfg.CredentialsPath); err != nil {
			logger.Error("service account file not readable", "path", cfg.CredentialsPath, "error", err)
			os.Exit(1)
		}
		logger.Info("using Firebase service account from file", "path", cfg.CredentialsPath)
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	var verifier firebase.TokenVerifier
	if cfg.FirebaseProject != "" {
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			logger.Error("failed to initialize Firebase", "error", err)
			os.Exit(1)
		}
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			logger.Error("failed to initialize Firebase Auth", "error", err)
			os.Exit(1)
		}
		verifier = firebase.NewFirebaseAuthClient(authClient)
	}

	var (
		chatStore domainrepo.ChatStore
		listings  domainrepo.ListingRepository
	)
	switch cfg.ChatStore {
	case config.StoreFirestore:
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			logger.Error("failed to create Firestore client", "error", err)
			os.Exit(1)
		}
		defer firestoreClient.Close()
		chatStore = repository.NewFirestoreChatRepository(firestoreClient, cfg.ChatsCollection)
		listings = repository.NewFirestoreListingRepository(firestoreClient, cfg.ListingsCollection)
	case config.StoreMemory:
		logger.Warn("using in-memory chat store; data is lost on restart")
		chatStore = repository.NewMemoryChatRepository()
		listings = repository.NewMemoryListingRepository()
	}

	var devTokens *handler.DevTokenHandler
	if verifier == nil {
		if !cfg.IsDevelopment() {
			logger.Error("FIREBASE_PROJECT_ID is required outside development")
			os.Exit(1)
		}
		logger.Warn("accepting unsigned development tokens")
		verifier = firebase.DevTokenVerifier{}
		devTokens = handler.NewDevTokenHandler()
	}

	chatUseCase := usecase.NewChatUseCase(chatStore, listings, usecase.RetryPolicy{
		Min: cfg.SubscribeRetryMin,
		Max: cfg.SubscribeRetryMax,
	})

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	sendLimiter := ratelimit.NewRateLimiter(cfg.SendRatePerMinute)
	sendLimiter.StartCleanupRoutine(ctx, 30*time.Minute)

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		WebSocket: handler.NewWebSocketHandler(ctx, wsManager, authMiddleware, chatUseCase, sendLimiter, cfg.WideLayoutDefault, cfg.AllowedOrigins),
		Health:    handler.NewHealthHandler(cfg.ChatStore, wsManager),
		DevToken:  devTokens,
	}, authMiddleware, sendLimiter)

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "store", cfg.ChatStore, "environment", cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
