package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/tikget/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Exists() && !initForce {
			color.Yellow("Config already exists at %s (use --force to overwrite)", config.SavePath())
			return nil
		}

		if err := config.Save(config.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		color.Green("Created %s", config.SavePath())
		fmt.Println("Edit it to set your bot token, or export " + config.TokenEnvVar)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
