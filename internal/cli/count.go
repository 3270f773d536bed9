package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
	"docdb-go/docp"
)

var countCmd = &cobra.Command{
	Use:   "count <collection>",
	Short: "Count the documents in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			n, err := cli.Count(ctx, args[0])
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(docp.Document{"collection": args[0], "count": n}))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
