package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/fourkeys/internal/config"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/store"
)

const dbConnectRetries = 5

type userCreator interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (store.User, error)
}

// createUser hashes password with bcrypt and stores the user.
func createUser(ctx context.Context, db userCreator, username, password string, cost int) (store.User, error) {
	if username == "" || password == "" {
		return store.User{}, errors.New("USERNAME and PASSWORD environment variables must be set")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return store.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return db.CreateUser(ctx, username, string(hashedPassword))
}

func main() {
	logger := log.New(os.Stdout, "userctl: ", log.LstdFlags)
	ctx := context.Background()

	username := os.Getenv("USERNAME")
	password := os.Getenv("PASSWORD")
	if username == "" || password == "" {
		logger.Fatal("USERNAME and PASSWORD environment variables must be set.")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	dsn := cfg.Database.DSN()
	if dsn == "" {
		logger.Fatal("Database is not configured: set DATABASE_URL or POSTGRES_HOST")
	}

	slogger := logging.New(os.Stderr, logging.Level(cfg.Logging.Level))
	if err := store.Migrate(dsn, cfg.Database.MigrationsPath, slogger); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db, err := store.Connect(ctx, dsn, 1, dbConnectRetries, slogger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	newUser, err := createUser(ctx, db, username, password, bcrypt.DefaultCost)
	if errors.Is(err, store.ErrUserExists) {
		logger.Fatalf("Failed to create user: username '%s' already exists.", username)
	}
	if err != nil {
		logger.Fatalf("Failed to create user: %v", err)
	}

	logger.Printf("Successfully created user: ID=%d, Username=%s\n", newUser.ID, newUser.Username)
}
