package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/config"
	"github.com/harentsoaR/medadmin-api/internal/mailer"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/passwordpolicy"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

// seed creates or updates the administrator credential and account described
// by SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD and SEED_ADMIN_NAME.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	cfg := config.Load()
	logger := utils.NewLogger(cfg.AppName+"-seed", cfg.Env)

	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	if email == "" {
		logger.Fatal("SEED_ADMIN_EMAIL is required")
	}
	if v := passwordpolicy.Validate(password); !v.IsValid {
		logger.WithField("errors", v.Errors).Fatal("SEED_ADMIN_PASSWORD does not meet the password policy")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(cfg.MongoDatabase)

	credentials := auth.NewMongoCredentials(db)
	if err := credentials.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("failed to create credential indexes")
	}
	accounts := store.NewMongo(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("failed to create account indexes")
	}

	// Only the credential repository is touched here; sessions, reset codes
	// and counters stay in memory.
	authSvc := auth.NewService(credentials, auth.NewInMemorySessions(), auth.NewInMemoryResetCodes(),
		auth.NewInMemoryAttempts(), utils.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL),
		mailer.LogMailer{Logger: logger}, logger, nil, auth.Options{BcryptCost: cfg.BcryptCost})

	cred, err := authSvc.CreateCredential(ctx, email, password)
	if errors.Is(err, auth.ErrEmailTaken) {
		cred, err = authSvc.SetPassword(ctx, email, password)
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to save admin credential")
	}

	acc := &models.Account{
		ID:        cred.ID,
		Email:     cred.Email,
		Name:      name,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
	}
	err = accounts.Create(ctx, acc)
	if errors.Is(err, store.ErrAlreadyExists) {
		err = accounts.Update(ctx, acc.ID, models.Fields{"email": acc.Email, "name": acc.Name, "role": string(models.RoleAdmin)})
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to save admin account")
	}

	logger.WithField("account_id", acc.ID).WithField("email", acc.Email).Info("admin account ready")
}
