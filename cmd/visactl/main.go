package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kethan23/build-buddy-app-766-sub000/config"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/bootstrap"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/postgres"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/country"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/auth"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "visactl",
		Short:        "Operator tooling for the visa workflow service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(countriesCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := postgres.MigrateUp(db)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Database at version %d.\n", version)
			return nil
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.MigrateDown(db, steps); err != nil {
				return err
			}
			fmt.Printf("Rolled back %d migration(s).\n", steps)
			return nil
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	return cmd
}

func countriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Manage country visa requirements",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default country requirements that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawActor, _ := cmd.Flags().GetString("actor")
			actorID, err := uuid.Parse(rawActor)
			if err != nil {
				return fmt.Errorf("--actor must be the admin's user id: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.NewNop()
			storage, err := bootstrap.OpenStorage(cfg.Database, false, log)
			if err != nil {
				return err
			}
			defer storage.Close()

			svc := country.NewService(storage.Countries, audit.NewService(storage.Audit), country.CacheConfig{}, log)
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			created, err := svc.Seed(ctx, model.Actor{ID: actorID, Role: model.RoleAdmin}, country.Defaults())
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d country requirement(s).\n", created)
			return nil
		},
	}
	seedCmd.Flags().String("actor", "", "Admin user id recorded in the audit log")
	cmd.AddCommand(seedCmd)

	return cmd
}

// tokenCmd mints bearer tokens for local testing. Real tokens come from the
// platform's identity service.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			actor := model.Actor{ID: uuid.New(), Role: model.Role(role)}
			if !actor.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if subject != "" {
				id, err := uuid.Parse(subject)
				if err != nil {
					return fmt.Errorf("--subject must be a uuid: %w", err)
				}
				actor.ID = id
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer).GenerateToken(actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "subject=%s role=%s\n", actor.ID, actor.Role)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("role", string(model.RolePatient), "patient, hospital or admin")
	cmd.Flags().String("subject", "", "User id to embed; random when empty")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
