package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	docdb_go "docdb-go"
)

var upsertID string

var upsertCmd = &cobra.Command{
	Use:   "upsert <collection> <document-json>",
	Short: "Update a document, or insert it when missing",
	Long:  "With --id, merge into the document with that id, inserting under it when unknown. Without --id, insert as new.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseDoc(args[1])
		if err != nil {
			return err
		}
		var id *string
		if upsertID != "" {
			id = &upsertID
		}
		return withClient(cmd, func(ctx context.Context, cli *docdb_go.Client) error {
			stored, err := cli.Upsert(ctx, args[0], id, doc)
			if err != nil {
				return fmt.Errorf("upsert: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(stored))
			return nil
		})
	},
}

func init() {
	upsertCmd.Flags().StringVar(&upsertID, "id", "", "id of the document to update (omit to insert as new)")
	rootCmd.AddCommand(upsertCmd)
}
