package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gadgets-backend-go/internal/api"
	"gadgets-backend-go/internal/cache"
	"gadgets-backend-go/internal/config"
	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/messagequeue"
	"gadgets-backend-go/internal/middleware"
	"gadgets-backend-go/internal/payment"
)

func main() {
	// --- 1. Load Application Configuration ---
	// The logger level depends on GIN_MODE, so configuration comes first.
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(appConfig.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() // Flushes buffered entries on exit.
	zapLogger.Info("Application configuration loaded", zap.String("storeDriver", appConfig.StoreDriver))

	// --- 3. Open the document store (and Firebase when configured) ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	var firebaseAuth *auth.Client
	store, err := openStore(initCtx, appConfig, zapLogger, &firebaseAuth)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open document store", zap.Error(err))
	}
	zapLogger.Info("Document store ready", zap.String("driver", appConfig.StoreDriver))

	// --- 4. Optional infrastructure: role cache and domain events ---
	// Without Redis every admin check reads the user from the store.
	var roleCache cache.Cache = cache.NewNopCache()
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		roleCache = redisCache
		zapLogger.Info("Role cache enabled", zap.String("address", appConfig.RedisAddr), zap.Duration("ttl", appConfig.RoleCacheTTL))
	} else {
		zapLogger.Info("Role cache disabled: REDIS_ADDR is not set")
	}

	// queue stays a nil interface when RabbitMQ is off. The event publisher
	// treats that as "drop events".
	var queue messagequeue.MessageQueue
	if appConfig.RabbitMQURL != "" {
		rabbit, err := messagequeue.NewRabbitMQService(appConfig.RabbitMQURL)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		queue = rabbit
		zapLogger.Info("Domain events enabled", zap.String("queue", appConfig.EventsQueue))
	} else {
		zapLogger.Info("Domain events disabled: RABBITMQ_URL is not set")
	}

	// --- 5. Initialize Services ---
	tokens, err := core.NewTokenService(appConfig.AccessTokenSecret, appConfig.TokenTTL)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize token service", zap.Error(err))
	}
	overrides, err := core.ParseRuleOverrides(appConfig.PolicyRules)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid POLICY_RULES", zap.Error(err))
	}

	roles := core.NewRoleResolver(store, roleCache, appConfig.RoleCacheTTL, zapLogger)
	policy := core.NewPolicy(roles, overrides, zapLogger)
	events := core.NewEventPublisher(queue, appConfig.EventsQueue, zapLogger)
	gateway := payment.NewStripeGateway(appConfig.StripeSecretKey)

	services := api.Services{
		Users:    core.NewUserService(store, tokens, policy, roles, events, zapLogger),
		Products: core.NewProductService(store, policy),
		Orders:   core.NewOrderService(store, policy, events),
		Carts:    core.NewCartService(store, policy),
		Payments: core.NewPaymentService(store, gateway, appConfig.PaymentCurrency, policy, events, zapLogger),
		Reviews:  core.NewReviewService(store, policy),
		Teams:    core.NewTeamService(store, policy),
		Blogs:    core.NewBlogService(store, policy),
	}
	zapLogger.Info("Core services initialized")

	// --- 6. Setup Gin Router and Middleware ---
	if strings.ToLower(appConfig.GinMode) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	// gin.New() instead of gin.Default(): logging and recovery come from our
	// zap-based middleware. RequestID runs first so every later log line carries it.
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
	if appConfig.ClientURL == "" {
		zapLogger.Warn("CLIENT_URL is not set: CORS allows every origin")
	}

	// Assign only a non-nil client. A typed nil inside the interface would
	// make the middleware call into a nil *auth.Client.
	var firebaseVerifier middleware.FirebaseTokenVerifier
	if firebaseAuth != nil {
		firebaseVerifier = firebaseAuth
	}
	authMW := middleware.NewAuthMiddleware(tokens, firebaseVerifier)
	api.SetupRoutes(router, appConfig, zapLogger, authMW, services)

	// --- 7. Start HTTP Server with Graceful Shutdown ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	// Serve in a goroutine so main can wait for a shutdown signal.
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// In-flight requests get 10 seconds to finish before the server is forced down.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	// Close backing clients only after the server has stopped using them.
	if err := store.Close(shutdownCtx); err != nil {
		zapLogger.Warn("Failed to close document store", zap.Error(err))
	}
	if err := roleCache.Close(); err != nil {
		zapLogger.Warn("Failed to close role cache", zap.Error(err))
	}
	if queue != nil {
		if err := queue.Close(); err != nil {
			zapLogger.Warn("Failed to close message queue", zap.Error(err))
		}
	}
	zapLogger.Info("Server exiting gracefully")
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if strings.ToLower(ginMode) == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore connects the configured DocumentStore. When Firebase is needed
// (Firestore storage or sign-in proof) the app is initialized once and its
// Auth client is handed back through firebaseAuth.
func openStore(ctx context.Context, appConfig *config.Config, logger *zap.Logger, firebaseAuth **auth.Client) (db.DocumentStore, error) {
	if appConfig.UsesFirebase() {
		app, err := db.InitFirebase(ctx, appConfig, logger)
		if err != nil {
			return nil, err
		}
		if appConfig.FirebaseSignInRequired {
			client, err := app.Auth(ctx)
			if err != nil {
				return nil, fmt.Errorf("firebase auth client: %w", err)
			}
			*firebaseAuth = client
		}
		if appConfig.StoreDriver == config.StoreFirestore {
			client, err := app.Firestore(context.Background())
			if err != nil {
				return nil, fmt.Errorf("firestore client: %w", err)
			}
			return db.NewFirestoreStore(client)
		}
	}

	switch appConfig.StoreDriver {
	case config.StoreMongo:
		return db.ConnectMongo(ctx, appConfig.MongoURI, appConfig.MongoDatabase)
	case config.StoreSQLite:
		return db.OpenSQLiteStore(ctx, appConfig.SQLiteDSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", appConfig.StoreDriver)
	}
}
