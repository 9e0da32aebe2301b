package commands

import (
	"fmt"
	"os"

	"github.com/nusapay/ewallet/src/config"
	"github.com/spf13/cobra"
)

var _config = config.NewDefaultConfig()

// RootCmd is the root command for the ewallet branch node
var RootCmd = &cobra.Command{
	Use:              "ewallet",
	Short:            "multi-branch ledger node",
	TraverseChildren: true,
}

func init() {
	RootCmd.AddCommand(
		NewRunCmd(),
		VersionCmd,
	)
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)

		os.Exit(1)
	}
}
