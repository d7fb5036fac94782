package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guiyumin/tikget/internal/extractor"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List supported sites",
	Run: func(cmd *cobra.Command, args []string) {
		for _, e := range extractor.List() {
			fmt.Println(e.Name())
		}
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
