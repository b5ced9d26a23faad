package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the wpq client.
// It registers the queue command group and the health check.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "wpq",
		Short: "wpq client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL), NewHealthCommand(baseURL))
	return root
}
