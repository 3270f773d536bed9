package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Remove a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			if err := cli.Delete(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q from %q.\n", args[1], args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
