package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/atomicprogress/atomgame/atomgame"
	"github.com/atomicprogress/atomgame/atomgame/database"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/logger"
	"github.com/atomicprogress/atomgame/atomgame/migration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	configPath := flag.String("config", "config.toml", "path to config")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "legacy MongoDB URI")
	mongoDB := flag.String("mongo-db", "atomgame", "legacy MongoDB database name")
	collection := flag.String("collection", "users", "legacy save collection name")
	batchSize := flag.Int("batch-size", 500, "ledger seed batch size")
	flag.Parse()

	ctx := context.Background()

	cfg, err := atomgame.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(*mongoURI))
	cancel()
	if err != nil {
		slog.Error("Failed to connect to legacy MongoDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	migrator := migration.NewMigrator(db.BunDB(), catalog.Default())
	migrator.UseMongo(client, *mongoDB)
	migrator.UsePool(db.GetPool())
	migrator.SetCollectionName(*collection)
	migrator.SetBatchSize(*batchSize)

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Migration completed successfully!")
}
