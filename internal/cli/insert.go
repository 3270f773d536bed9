package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
)

var insertCmd = &cobra.Command{
	Use:   "insert <collection> <document-json>",
	Short: "Store a new document",
	Long:  "Store a new document in a collection. The server assigns the id and the stored document is printed back.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseDoc(args[1])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			stored, err := cli.Insert(ctx, args[0], doc)
			if err != nil {
				return fmt.Errorf("insert: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(stored))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
