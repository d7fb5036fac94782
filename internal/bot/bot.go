package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/guiyumin/tikget/internal/config"
	"github.com/guiyumin/tikget/internal/downloader"
	"github.com/guiyumin/tikget/internal/extractor"
	"github.com/guiyumin/tikget/internal/i18n"
)

// Bot is the Telegram-facing runtime: it polls updates and relays TikTok
// media back into the requesting chat
type Bot struct {
	api   Sender
	dl    *downloader.Downloader
	t     *i18n.Translations
	log   *slog.Logger
	stats *Stats
}

// New authenticates against the Telegram Bot API and wires the pipeline
func New(cfg *config.Config, logger *slog.Logger) (*Bot, error) {
	token := cfg.Token()
	if token == "" {
		return nil, fmt.Errorf("missing bot token (set bot_token in %s or the %s env var)",
			config.SavePath(), config.TokenEnvVar)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authentication failed: %w", err)
	}
	logger.Info("authorized", "account", api.Self.UserName)

	return newWithSender(cfg, logger, api), nil
}

// newWithSender wires the pipeline around an arbitrary Sender (tests pass a fake)
func newWithSender(cfg *config.Config, logger *slog.Logger, api Sender) *Bot {
	// The handler dispatches through the registry, so the configured
	// instance replaces the default registration for the same hosts
	ext := extractor.NewTikTok()
	ext.SetEndpoints(cfg.API.TikWM, cfg.API.Fallback)
	extractor.Register(ext, extractor.TikTokHosts...)

	return &Bot{
		api:   api,
		dl:    downloader.New(cfg.SizeLimit()),
		t:     i18n.T(cfg.Language),
		log:   logger,
		stats: NewStats(),
	}
}

// Stats exposes the relay counters for the status server
func (b *Bot) Stats() *Stats {
	return b.stats
}

// Run polls for updates until the updates channel closes. Each media request
// runs in its own goroutine; a failed request never takes the process down.
func (b *Bot) Run() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("polling for updates")

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil {
			continue
		}

		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			continue
		}

		if update.Message.Text == "" {
			b.reply(update.Message.Chat.ID, b.t.Bot.SendLink)
			continue
		}

		go b.handleLink(update.Message)
	}

	return nil
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, b.t.Bot.Welcome)
	case "help":
		b.reply(msg.Chat.ID, b.t.Bot.Help)
	default:
		b.reply(msg.Chat.ID, b.t.Bot.SendLink)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

// errorText maps a pipeline failure to its localized user-facing message
func (b *Bot) errorText(err error) string {
	var exErr *extractor.ExtractError
	if errors.As(err, &exErr) {
		switch exErr.Code {
		case extractor.ErrorInvalidURL:
			return b.t.Errors.InvalidURL
		case extractor.ErrorAPIFailure:
			return b.t.Errors.APIFailure
		}
	}

	var sizeErr *downloader.SizeError
	if errors.As(err, &sizeErr) {
		return fmt.Sprintf(b.t.Errors.TooLarge,
			downloader.FormatBytes(sizeErr.Fetched),
			downloader.FormatBytes(sizeErr.Limit))
	}

	var fetchErr *downloader.FetchError
	if errors.As(err, &fetchErr) {
		return b.t.Errors.NetworkError
	}

	return b.t.Errors.SomethingWrong
}

// uploadFilename builds a safe filename for the relayed media
func uploadFilename(m extractor.Media, ext string) string {
	name := extractor.SanitizeFilename(m.GetTitle())
	if name == "" {
		name = "tiktok_" + m.GetID()
	}
	if strings.TrimSpace(name) == "tiktok_" {
		name = "tiktok_media"
	}
	return name + "." + ext
}
