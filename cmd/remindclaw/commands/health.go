package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/database"
)

// newHealthCmd creates `remindclaw health`, which checks the configured
// database and prints its status as JSON. Exits non-zero when unhealthy.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the reminder database",
		Long:  `Open the configured database, apply pending migrations and report connectivity and pool statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			backend, err := database.Open(ctx, cfg.Database, quietLogger())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer backend.Close()

			status := backend.Health.Status(ctx)
			out, err := json.MarshalIndent(struct {
				Backend database.BackendType  `json:"backend"`
				Status  database.HealthStatus `json:"status"`
			}{backend.Type, status}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %s", status.Error)
			}
			return nil
		},
	}
}
