package cli

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackquery/internal/config"
	"github.com/matzehuels/stackquery/pkg/cache"
	"github.com/matzehuels/stackquery/pkg/errors"
)

const connectTimeout = 5 * time.Second

// openStore opens the persistence backend. It returns nil for "none".
func openStore(ctx context.Context, backend string, cfg config.CacheConfig) (cache.Cache, error) {
	var (
		store cache.Cache
		err   error
	)
	switch backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendFile:
		store, err = openFileStore(cfg)
	case config.BackendRedis:
		store, err = openRedisStore(ctx, cfg)
	case config.BackendMongo:
		store, err = openMongoStore(ctx, cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	return cache.Instrumented(store, backend), nil
}

func openFileStore(cfg config.CacheConfig) (cache.Cache, error) {
	dir, err := queryDir(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate cache directory")
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create cache directory %s", dir)
	}
	return fc, nil
}

// redisStore closes the client it owns.
type redisStore struct {
	*cache.RedisCache
	client *redis.Client
}

func (s redisStore) Close() error { return s.client.Close() }

func openRedisStore(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis")
	}
	return redisStore{RedisCache: cache.NewRedisCache(client, cfg.RedisPrefix), client: client}, nil
}

// mongoStore disconnects the client it owns.
type mongoStore struct {
	*cache.MongoCache
	client *mongo.Client
}

func (s mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func openMongoStore(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	mc, err := cache.NewMongoCache(ctx, coll)
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "prepare mongodb collection")
	}
	return mongoStore{MongoCache: mc, client: client}, nil
}
