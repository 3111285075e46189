package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/MohitNegi1997/MoltenMotion/internal/checkout"
	"github.com/MohitNegi1997/MoltenMotion/internal/config"
	"github.com/MohitNegi1997/MoltenMotion/internal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sqliteFile = "carts.db"

// openStorage connects the configured backend. The returned func releases
// whatever connection the backend holds.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Factory, func(), error) {
	nop := func() {}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.MemoryFactory(), nop, nil

	case config.BackendFile:
		return storage.FileFactory(cfg.StoragePath), nop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nop, errors.Wrap(err, "failed to connect to redis")
		}
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return storage.RedisFactory(client), func() { client.Close() }, nil

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nop, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.MongoDB))
		return storage.MongoFactory(db), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Client().Disconnect(ctx); err != nil {
				log.Warn("failed to disconnect from mongodb", zap.Error(err))
			}
		}, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
			return nil, nop, errors.Wrap(err, "failed to create storage directory")
		}
		path := filepath.Join(cfg.StoragePath, sqliteFile)
		db, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nop, err
		}
		log.Info("opened sqlite", zap.String("path", path))
		return storage.SQLFactory(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nop, err
		}
		log.Info("connected to postgres")
		return storage.SQLFactory(db), func() { db.Close() }, nil
	}

	return nil, nop, errors.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// openPublisher returns the Kafka publisher when brokers are configured and
// a no-op publisher otherwise.
func openPublisher(cfg *config.Config, log *zap.Logger) (checkout.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return checkout.Nop{}, func() {}
	}
	p := checkout.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	log.Info("publishing checkouts to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
}

// newCatalog reads the catalog over HTTP when a catalog URL is configured and
// from the data directory otherwise.
func newCatalog(cfg *config.Config, log *zap.Logger) *catalog.Client {
	if cfg.CatalogURL != "" {
		return catalog.NewClient(cfg.CatalogURL, catalog.WithLogger(log))
	}
	return catalog.NewDirClient(cfg.DataDir, catalog.WithLogger(log))
}
