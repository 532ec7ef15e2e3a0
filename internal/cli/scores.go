package cli

import (
	"context"
	"fmt"

	"composer-quiz/internal/app"
	"composer-quiz/internal/infra/sqlite"
	"github.com/spf13/cobra"
)

// NewScoresCmd prints the stored score pair of an installation.
func NewScoresCmd(configPath *string) *cobra.Command {
	var installation string
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show current and high score",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			if installation == "" {
				installation = cfg.InstallationID()
			}
			if cfg.SQLite.Path == "" && cfg.Redis.Addr == "" && cfg.Postgres.URL == "" {
				cfg.SQLite.Path = sqlite.DefaultPath
			}

			st := newStack(cfg)
			defer st.close()
			store, err := st.scoreStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			state, err := app.NewScoreTracker(store, installation).Load(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: current %d, high %d\n", installation, state.CurrentScore, state.HighScore)
			return nil
		},
	}
	cmd.Flags().StringVar(&installation, "installation", "", "installation id (defaults to quiz.installationId)")
	return cmd
}
