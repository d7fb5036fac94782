package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/tikget/internal/bot"
	"github.com/guiyumin/tikget/internal/config"
	"github.com/guiyumin/tikget/internal/server"
	"github.com/guiyumin/tikget/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tikget",
	Short: "Telegram bot that downloads TikTok videos and photo posts",
	Long: `tikget runs a Telegram bot that accepts TikTok links and sends the
media back into the chat, watermark-free when the API allows it.

Set the bot token in ` + config.SavePath() + ` (run 'tikget init')
or via the ` + config.TokenEnvVar + ` environment variable.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot() error {
	if !config.Exists() {
		color.Yellow("No config file found at %s", config.SavePath())
		color.Yellow("Run 'tikget init' to create one, or set %s", config.TokenEnvVar)
	}
	cfg := config.LoadOrDefault()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	b, err := bot.New(cfg, logger)
	if err != nil {
		color.Red("Error: %v", err)
		return err
	}

	if cfg.Server.Port > 0 {
		srv := server.New(cfg.Server.Port, b.Stats())
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
		color.Cyan("Status server listening on :%d", cfg.Server.Port)
	}

	color.Green("tikget %s is running (max file size: %s)",
		version.Version, formatLimit(cfg.SizeLimit()))
	return b.Run()
}

func formatLimit(bytes int64) string {
	return fmt.Sprintf("%d MB", bytes/(1024*1024))
}
