package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
)

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id> <fields-json>",
	Short: "Apply fields to an existing document",
	Long:  "Merge the given fields into the document with the given id. The id itself cannot be changed.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseDoc(args[2])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			doc, err := cli.Update(ctx, args[0], args[1], fields)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(doc))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
