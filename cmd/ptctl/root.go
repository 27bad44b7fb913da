package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"ptcoach/pt-server/internal/auth"
	"ptcoach/pt-server/internal/config"
	"ptcoach/pt-server/internal/logging"
	"ptcoach/pt-server/internal/repository/mongo"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	var cfg config.Config

	root := &cobra.Command{
		Use:           "ptctl",
		Short:         "Operator tasks for the PT server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
			logging.Setup(logging.LoggerSetupParams{LogToStdout: true, LogLevel: cfg.Log.Level})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml")

	root.AddCommand(
		newTokenCmd(&cfg),
		newIndexesCmd(&cfg),
		newExpandCmd(),
	)
	return root
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var subject, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an identity token signed with the configured auth secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.MintToken(cfg.Auth.Secret, cfg.Auth.Issuer, auth.Identity{Subject: subject, Email: email}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "stable user id (sub claim)")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newIndexesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes the server relies on",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := mongo.ConnectDB(cfg.Database.URI)
			if err != nil {
				return err
			}
			defer func() {
				if err := mongo.DisconnectDB(client); err != nil {
					log.Errorf("failed to disconnect MongoDB: %v", err)
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name)); err != nil {
				return err
			}
			log.Infof("indexes ensured on database '%s'", cfg.Database.Name)
			return nil
		},
	}
}
