package command

// root.go defines the root command for boardctl and the flags shared by
// every subcommand.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"messageboard/internal/config"
	"messageboard/internal/tenant"
)

var (
	backend    string // overrides STORE_BACKEND
	tenantName string // tenant whose table a command works on
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "boardctl - messageboard operations tool",
	Long: `boardctl manages the per-tenant tables of the messageboard service.
Tables are never created by the service itself, so every tenant must be
provisioned here before its first request.

Configuration is read from the same environment (and .env file) as the server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "store backend (dynamodb|postgres), defaults to STORE_BACKEND")
	rootCmd.PersistentFlags().StringVarP(&tenantName, "tenant", "t", "", "tenant name")
}

// loadConfig reads the server configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.StoreBackend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// tableFor validates a tenant name and returns its physical table.
func tableFor(cfg *config.Config, name string) (string, error) {
	res, err := tenant.NewResolver(cfg.TablePrefix).Resolve(tenant.Input{
		Query: map[string]string{"tenant": name},
	})
	if err != nil {
		return "", err
	}
	return res.Table, nil
}
