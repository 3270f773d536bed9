package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
	"docdb-go/docp"
)

var findLimit int

var findCmd = &cobra.Command{
	Use:   "find <collection> [query-json]",
	Short: "List documents matching a query",
	Long:  "List the documents in a collection. With no query every document matches; a query matches on field equality.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query docp.Document
		if len(args) == 2 {
			var err error
			if query, err = parseDoc(args[1]); err != nil {
				return err
			}
		}
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			docs, err := cli.Find(ctx, args[0], query, findLimit)
			if err != nil {
				return fmt.Errorf("find: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(docs))
			return nil
		})
	},
}

func init() {
	findCmd.Flags().IntVar(&findLimit, "limit", 0, "maximum number of documents to return (0 = unlimited)")
	rootCmd.AddCommand(findCmd)
}
