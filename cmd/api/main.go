package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/config"
	"github.com/harentsoaR/medadmin-api/internal/handlers"
	"github.com/harentsoaR/medadmin-api/internal/mailer"
	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/middleware"
	"github.com/harentsoaR/medadmin-api/internal/services"
	"github.com/harentsoaR/medadmin-api/internal/session"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/utils"
	"github.com/harentsoaR/medadmin-api/internal/watch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	cfg := config.Load()
	logger := utils.NewLogger(cfg.AppName, cfg.Env)
	if err := utils.InitValidation(); err != nil {
		logger.WithError(err).Fatal("failed to configure request validation")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(cfg.MongoDatabase)
	logger.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	accounts := store.NewMongo(db)
	credentials := auth.NewMongoCredentials(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("failed to create account indexes")
	}
	if err := credentials.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("failed to create credential indexes")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// --- Initialize Services ---
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	authSvc := auth.NewService(
		credentials,
		auth.NewRedisSessions(rdb),
		auth.NewRedisResetCodes(rdb),
		auth.NewRedisAttempts(rdb),
		utils.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL),
		newMailer(cfg, logger),
		logger,
		m,
		auth.Options{
			BcryptCost:         cfg.BcryptCost,
			ResetCodeTTL:       cfg.ResetCodeTTL,
			ResetURL:           cfg.ResetURL,
			MaxFailedSignIns:   cfg.MaxFailedSignIns,
			FailedSignInWindow: cfg.FailedSignInTTL,
		},
	)

	hub := watch.NewHub(accounts, logger, m)
	accountSvc := services.NewAccountService(accounts, hub, logger, m)
	if cfg.ChangeStreamEnabled {
		go services.NewChangeFeed(accounts.Collection(), hub, logger).Run(ctx)
	}

	gates := &session.Factory{
		Bind:     func(ctx context.Context, token string) session.Source { return authSvc.Bind(ctx, token) },
		Accounts: accounts,
		Logger:   logger,
	}

	// --- Initialize Handlers ---
	h := handlers.NewHandler(authSvc, accountSvc, hub, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	}, logger, m)

	// --- Gin Router ---
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if cfg.HTTPLogEnabled {
		r.Use(middleware.Logger(logger))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	requireAdmin := middleware.RequireAdmin(gates, cfg.CookieName, cfg.SessionResolveTimeout, m)
	h.RegisterRoutes(r, requireAdmin, middleware.NewWriteLocks())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func newMailer(cfg *config.Config, logger *logrus.Logger) mailer.Mailer {
	if !cfg.MailSendEnabled {
		return mailer.LogMailer{Logger: logger}
	}
	return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
}
