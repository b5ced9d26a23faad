package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}
	queueCmd.AddCommand(
		newQueuePushCommand(baseURL),
		newQueueRunCommand(baseURL),
		newQueueStatusCommand(baseURL),
		newQueueBatchesCommand(baseURL),
		newQueueCancelCommand(baseURL),
	)
	return queueCmd
}

// newQueuePushCommand constructs the `queue push` subcommand.
func newQueuePushCommand(baseURL BaseURLFunc) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push items as one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, _ := cmd.Flags().GetStringArray("item")
			file, _ := cmd.Flags().GetString("items-file")
			group, _ := cmd.Flags().GetString("group")
			dispatch, _ := cmd.Flags().GetBool("dispatch")

			payloads := make([][]byte, 0, len(items))
			for _, it := range items {
				payloads = append(payloads, []byte(it))
			}
			if file != "" {
				fromFile, err := readItemsFile(file)
				if err != nil {
					return err
				}
				payloads = append(payloads, fromFile...)
			}
			if len(payloads) == 0 {
				return fmt.Errorf("no items; use --item or --items-file")
			}

			body := map[string]any{"items": payloads, "group": group, "dispatch": dispatch}
			status, _, err := httpPostJSON(cmd.Context(), baseURL()+"/v1/queue/push", body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			return nil
		},
	}
	pushCmd.Flags().StringArray("item", nil, "Item payload (repeatable)")
	pushCmd.Flags().String("items-file", "", "File with one JSON-line item per line")
	pushCmd.Flags().StringP("group", "g", "", "Batch group label")
	pushCmd.Flags().Bool("dispatch", true, "Fire a run-now trigger after saving")
	return pushCmd
}

// newQueueRunCommand constructs the `queue run` subcommand.
func newQueueRunCommand(baseURL BaseURLFunc) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a processing pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wait, _ := cmd.Flags().GetBool("wait")
			target := baseURL() + "/v1/queue/run"
			if wait {
				target += "?wait=1"
			}
			status, _, err := httpPostJSON(cmd.Context(), target, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			return nil
		},
	}
	runCmd.Flags().Bool("wait", false, "Wait for the pass to finish")
	return runCmd
}

// newQueueStatusCommand constructs the `queue status` subcommand.
func newQueueStatusCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := httpGetJSON(cmd.Context(), baseURL()+"/v1/queue/status")
			if err != nil {
				return err
			}
			return printJSON(cmd, body)
		},
	}
}

// newQueueBatchesCommand constructs the `queue batches` subcommand.
func newQueueBatchesCommand(baseURL BaseURLFunc) *cobra.Command {
	batchesCmd := &cobra.Command{
		Use:   "batches",
		Short: "List stored batches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			q := url.Values{}
			if filter != "" {
				q.Set("filter", filter)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			target := baseURL() + "/v1/queue/batches"
			if len(q) > 0 {
				target += "?" + q.Encode()
			}
			body, err := httpGetJSON(cmd.Context(), target)
			if err != nil {
				return err
			}
			return printJSON(cmd, body)
		},
	}
	batchesCmd.Flags().String("filter", "", `CEL filter, e.g. group == "emails" && items > 10`)
	batchesCmd.Flags().Int("limit", 0, "Stop after N batches (0 = all)")
	return batchesCmd
}

// newQueueCancelCommand constructs the `queue cancel` subcommand.
func newQueueCancelCommand(baseURL BaseURLFunc) *cobra.Command {
	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Remove the oldest stored batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				return fmt.Errorf("cancel removes stored work; pass --confirm")
			}
			status, _, err := httpPostJSON(cmd.Context(), baseURL()+"/v1/queue/cancel", nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			return nil
		},
	}
	cancelCmd.Flags().Bool("confirm", false, "Confirm removal")
	return cancelCmd
}

func readItemsFile(path string) ([][]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items [][]byte
	for _, line := range splitLines(b) {
		if len(line) == 0 {
			continue
		}
		items = append(items, line)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no items", path)
	}
	return items, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
