package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"docdb-go/docnet"
)

// Version is the docdbctl release; overridable at build time with
// -ldflags "-X docdb-go/internal/cli.Version=...".
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and target information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "docdbctl version %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "target: %s\n",
			net.JoinHostPort(cfg.Host, strconv.Itoa(docnet.Port)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
