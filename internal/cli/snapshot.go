package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Ask the server to persist its current state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			if err := cli.Snapshot(ctx); err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Snapshot written.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
