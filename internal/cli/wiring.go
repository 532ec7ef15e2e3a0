package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"composer-quiz/internal/app"
	"composer-quiz/internal/config"
	"composer-quiz/internal/infra/file"
	"composer-quiz/internal/infra/memory"
	mongoloader "composer-quiz/internal/infra/mongo"
	"composer-quiz/internal/infra/postgres"
	redisstore "composer-quiz/internal/infra/redis"
	"composer-quiz/internal/infra/sqlite"
	"composer-quiz/internal/logging"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// loadConfig reads the YAML config; a missing file yields the defaults.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logrus.Logger {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// stack holds the backends selected by the config and the closers that release them.
type stack struct {
	redis   *redis.Client
	closers []func()
}

func (s *stack) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newStack(cfg config.Config) *stack {
	st := &stack{}
	if cfg.Redis.Addr != "" {
		st.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { _ = st.redis.Close() })
	}
	return st
}

func (s *stack) catalogLoader(ctx context.Context, cfg config.Config) (app.CatalogLoader, error) {
	switch cfg.Catalog.Source {
	case "", "builtin":
		return memory.NewStaticCatalogLoader(builtinSamples()), nil
	case "file":
		if cfg.Catalog.Path == "" {
			return nil, errors.New("catalog.path not configured")
		}
		return file.NewCatalogLoader(cfg.Catalog.Path), nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, errors.New("postgres url not configured")
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		return postgres.NewCatalogLoader(pool), nil
	case "mongo":
		client, err := s.mongoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mongoloader.NewCatalogLoader(client, mongoDatabase(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

func (s *stack) mongoClient(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	if cfg.Mongo.URI == "" {
		return nil, errors.New("mongo uri not configured")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func mongoDatabase(cfg config.Config) string {
	if cfg.Mongo.Database != "" {
		return cfg.Mongo.Database
	}
	return "composer_quiz"
}

func (s *stack) catalogRepository(loader app.CatalogLoader, cfg config.Config) app.CatalogRepository {
	ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if s.redis != nil {
		return redisstore.NewCatalogRepository(s.redis, loader, ttl)
	}
	return memory.NewCatalogRepository(loader, ttl)
}

// scoreStore picks the first configured backend: redis, postgres, sqlite, then memory.
func (s *stack) scoreStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (app.ScoreStore, error) {
	switch {
	case s.redis != nil:
		log.Info("scores kept in redis")
		return redisstore.NewScoreStore(s.redis), nil
	case cfg.Postgres.URL != "":
		db := postgres.OpenDB(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { _ = db.Close() })
		if _, err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		log.Info("scores kept in postgres")
		return postgres.NewScoreStore(db), nil
	case cfg.SQLite.Path != "":
		return s.sqliteScores(cfg.SQLite.Path, log)
	default:
		log.Warn("no score backend configured, scores are kept in memory")
		return memory.NewScoreStore(), nil
	}
}

func (s *stack) sqliteScores(path string, log logrus.FieldLogger) (*sqlite.ScoreStore, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = store.Close() })
	log.WithField("path", path).Info("scores kept in sqlite")
	return store, nil
}

func (s *stack) sessionRepository(cfg config.Config) app.SessionRepository {
	if s.redis != nil {
		return redisstore.NewSessionStore(s.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	}
	return memory.NewSessionStore()
}

func serviceOptions(cfg config.Config, log logrus.FieldLogger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithResultDelay(config.TTLDuration(cfg.Quiz.ResultDelay, app.DefaultResultDelay)),
	}
	if cfg.Quiz.MaxChoices > 0 {
		opts = append(opts, app.WithMaxChoices(cfg.Quiz.MaxChoices))
	}
	if cfg.Quiz.Seed != 0 {
		opts = append(opts, app.WithSeed(cfg.Quiz.Seed))
	}
	return opts
}
