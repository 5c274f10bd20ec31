package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"messageboard/database"
	"messageboard/internal/config"
	"messageboard/internal/microservices/http-api/repository"
)

var waitTimeout time.Duration

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the table of a tenant",
	Long: `Create the table (and room index) a tenant's messages live in.
An existing table is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := prepare()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout+30*time.Second)
		defer cancel()

		created, err := provision(ctx, cfg, table)
		if err != nil {
			return fmt.Errorf("failed to provision %s: %w", table, err)
		}

		if created {
			color.Green("✓ Table %s created (%s)", table, cfg.StoreBackend)
		} else {
			color.Yellow("Table %s already exists (%s)", table, cfg.StoreBackend)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the table of a tenant exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := prepare()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		repo, closeStore, err := openRepository(ctx, cfg, table)
		if err != nil {
			return err
		}
		defer closeStore()

		ok, err := repo.Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", table, err)
		}
		if !ok {
			color.Red("✗ Table %s does not exist (%s)", table, cfg.StoreBackend)
			return fmt.Errorf("tenant %q is not provisioned", tenantName)
		}
		color.Green("✓ Table %s exists (%s)", table, cfg.StoreBackend)
		return nil
	},
}

func init() {
	provisionCmd.Flags().DurationVar(&waitTimeout, "wait", 2*time.Minute, "how long to wait for a new table to become active")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(checkCmd)
}

func prepare() (*config.Config, string, error) {
	if tenantName == "" {
		return nil, "", errors.New("--tenant is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	table, err := tableFor(cfg, tenantName)
	if err != nil {
		return nil, "", err
	}
	return cfg, table, nil
}

func provision(ctx context.Context, cfg *config.Config, table string) (bool, error) {
	if cfg.StoreBackend == config.BackendPostgres {
		db, err := database.ConnectDB(ctx, cfg, zap.NewNop())
		if err != nil {
			return false, err
		}
		defer database.Close(db)

		exists, err := repository.NewPostgresMessageRepository(db, table).Exists(ctx)
		if err != nil || exists {
			return false, err
		}
		return true, repository.CreatePostgresTable(ctx, db, table)
	}

	client, err := repository.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
	if err != nil {
		return false, err
	}
	return repository.CreateDynamoTable(ctx, client, table, cfg.RoomIndex, waitTimeout)
}

func openRepository(ctx context.Context, cfg *config.Config, table string) (repository.MessageRepository, func(), error) {
	if cfg.StoreBackend == config.BackendPostgres {
		db, err := database.ConnectDB(ctx, cfg, zap.NewNop())
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresMessageRepository(db, table), func() { database.Close(db) }, nil
	}

	client, err := repository.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewDynamoMessageRepository(client, table, cfg.RoomIndex), func() {}, nil
}
