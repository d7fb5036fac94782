package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guiyumin/tikget/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tikget version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tikget %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
