package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	dStub "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhruvjyotiray/natours/cmd"
	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/store"
	"github.com/dhruvjyotiray/natours/web/auth"
)

func main() {
	// Logging
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Println("can't create logger: ", err)
		os.Exit(1)
	}
	defer func() {
		// do not need to check for errors
		_ = logger.Sync()
	}()

	if err := run(logger); err != nil {
		logger.Error("shutting down, error: ", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}
	configPath, ok := os.LookupEnv("NATOURS_CONFIG")
	if !ok {
		return fmt.Errorf("NATOURS_CONFIG environment variable is not specified")
	}
	cfg, err := cmd.AppConfig(configPath, logger)
	if err != nil {
		return err
	}

	timeoutContext := time.Duration(cfg.Server.Timeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeoutContext)
	defer cancel()

	client, err := store.Open(ctx, cfg.MongoConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err = client.Disconnect(ctx); err != nil {
			logger.Error("mongodb client disconnect error: ", zap.Error(err))
		}
	}()

	if len(os.Args) < 2 {
		return errors.New("must specify a command: migrate_mongo, seed, create_admin")
	}

	switch os.Args[1] {
	case "migrate_mongo":
		err = migrateMongo(client, cfg.MongoConfig.Name)
	case "seed":
		err = store.Seed(ctx, client.Database(cfg.MongoConfig.Name))
	case "create_admin":
		if len(os.Args) < 4 {
			return errors.New("usage: create_admin <email> <password>")
		}
		err = createAdmin(ctx, client.Database(cfg.MongoConfig.Name), os.Args[2], os.Args[3])
	default:
		err = errors.New("must specify a command: migrate_mongo, seed, create_admin")
	}

	if err != nil {
		return err
	}

	return nil
}

func migrateMongo(db *mongo.Client, dbName string) error {
	instance, err := dStub.WithInstance(db, &dStub.Config{DatabaseName: dbName})
	if err != nil {
		return err
	}

	source, ok := os.LookupEnv("NATOURS_MIGRATIONS")
	if !ok {
		source = "file://store/migrations"
	}

	m, err := migrate.NewWithDatabaseInstance(source, dbName, instance)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func createAdmin(ctx context.Context, db *mongo.Database, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("can't generate password hash: %w", err)
	}

	now := time.Now().Truncate(time.Millisecond).UTC()
	admin := domain.User{
		ID:             primitive.NewObjectID(),
		FullName:       "Site Administrator",
		Email:          email,
		HashedPassword: string(hash),
		Roles:          []string{auth.RoleAdmin, auth.RoleUser},
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err = db.Collection(store.UserCollection).InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("can't insert admin user: %w", err)
	}

	return nil
}
