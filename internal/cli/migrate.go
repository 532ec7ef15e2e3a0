package cli

import (
	"context"
	"errors"

	"composer-quiz/internal/config"
	mongoloader "composer-quiz/internal/infra/mongo"
	"composer-quiz/internal/infra/postgres"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations and optionally seeds the builtin catalog.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runMigrations(ctx, cfg, seed, newLogger(cfg))
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the builtin sample catalog after migrating")
	return cmd
}

func runMigrations(ctx context.Context, cfg config.Config, seed bool, log logrus.FieldLogger) error {
	if cfg.Postgres.URL == "" && cfg.Mongo.URI == "" {
		return errors.New("neither postgres url nor mongo uri configured")
	}

	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()

		group, err := postgres.Migrate(ctx, db)
		if err != nil {
			return err
		}
		log.WithField("group", group.String()).Info("migrations applied")

		if seed {
			n, err := postgres.SeedSamples(ctx, db, builtinSamples())
			if err != nil {
				return err
			}
			log.WithField("samples", n).Info("postgres catalog seeded")
		}
	}

	if cfg.Mongo.URI != "" && seed {
		st := &stack{}
		defer st.close()
		client, err := st.mongoClient(ctx, cfg)
		if err != nil {
			return err
		}
		samples := builtinSamples()
		if err := mongoloader.NewCatalogLoader(client, mongoDatabase(cfg)).SeedSamples(ctx, samples); err != nil {
			return err
		}
		log.WithField("samples", len(samples)).Info("mongo catalog seeded")
	}
	return nil
}
