package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the campus server",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := api.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Health: %s (%s)\n", resp.Message, formatTime(resp.Timestamp))

		if !resp.Success {
			return fmt.Errorf("unhealthy: %s", resp.Message)
		}
		return nil
	},
}
