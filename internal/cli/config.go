package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/tikget/internal/config"
	"github.com/guiyumin/tikget/internal/i18n"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SavePath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()

		token := "(not set)"
		if cfg.Token() != "" {
			token = "(set)"
		}

		fmt.Printf("config file:    %s\n", config.SavePath())
		fmt.Printf("bot_token:      %s\n", token)
		fmt.Printf("language:       %s\n", orDefault(cfg.Language, "en"))
		fmt.Printf("max_file_size:  %d\n", cfg.SizeLimit())
		fmt.Printf("server.port:    %d\n", cfg.Server.Port)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (language, max_file_size, server.port)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		key, value := args[0], args[1]

		switch key {
		case "language":
			if !supportedLanguage(value) {
				return fmt.Errorf("unsupported language %q (supported: %v)", value, i18n.Languages)
			}
			cfg.Language = value
		case "max_file_size":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("max_file_size must be a positive byte count")
			}
			cfg.MaxFileSize = n
		case "server.port":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 65535 {
				return fmt.Errorf("server.port must be a port number")
			}
			cfg.Server.Port = n
		default:
			return fmt.Errorf("unknown key %q", key)
		}

		if err := config.Save(cfg); err != nil {
			return err
		}
		color.Green("Set %s = %s", key, value)
		return nil
	},
}

func supportedLanguage(lang string) bool {
	for _, l := range i18n.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
