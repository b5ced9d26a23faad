package client

import (
	"github.com/spf13/cobra"
)

// NewHealthCommand constructs the `health` command. It queries the
// server's health endpoint and prints the result.
func NewHealthCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := httpGetJSON(cmd.Context(), baseURL()+"/v1/healthz")
			if err != nil {
				return err
			}
			return printJSON(cmd, body)
		},
	}
}
