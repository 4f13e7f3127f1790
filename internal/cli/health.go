package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health. With --wait, keep retrying until the server answers
or the wait expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := checkHealth(cmd.Context(), wait)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Retry for up to this long before failing")

	return cmd
}

func checkHealth(ctx context.Context, wait time.Duration) (HealthResult, error) {
	deadline := time.Now().Add(wait)
	for {
		var result HealthResult
		err := client.Get(ctx, "/api/v1/health", &result)
		if err == nil {
			return result, nil
		}
		if time.Now().After(deadline) {
			return HealthResult{}, fmt.Errorf("server unhealthy: %w", err)
		}

		select {
		case <-ctx.Done():
			return HealthResult{}, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
