package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"unibio.dev/workbench/internal/core"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the tools backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := newBackendClient(nil)
			h, err := client.Health(ctx)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), core.UserMessage(err))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:  %s\n", client.BaseURL())
			fmt.Fprintf(out, "status:   %s\n", h.Status)
			fmt.Fprintf(out, "version:  %s\n", h.Version)
			if len(h.AvailableEndpoints) > 0 {
				fmt.Fprintf(out, "endpoints: %s\n", strings.Join(h.AvailableEndpoints, ", "))
			}

			if models, err := client.ListModels(ctx); err == nil {
				fmt.Fprintf(out, "models:   %s (default %s)\n", strings.Join(models.AvailableModels, ", "), models.DefaultModel)
			}
			return nil
		},
	}
}
