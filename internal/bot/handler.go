package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/guiyumin/tikget/internal/downloader"
	"github.com/guiyumin/tikget/internal/extractor"
)

// handleLink drives one link from message text to uploaded media. A status
// message tracks progress through the stages and is deleted on success.
func (b *Bot) handleLink(msg *tgbotapi.Message) {
	start := time.Now()
	log := b.log.With(
		"request_id", uuid.NewString(),
		"chat_id", msg.Chat.ID,
	)

	link := extractor.FindLink(msg.Text)
	ext := extractor.Match(link)
	if ext == nil {
		log.Warn("no extractor for message")
		b.stats.RecordFailure()
		b.reply(msg.Chat.ID, b.t.Errors.InvalidURL)
		return
	}
	log.Info("link accepted", "url", link, "extractor", ext.Name())

	status, statusOK := b.sendStatus(msg.Chat.ID, b.t.Status.Processing)
	fail := func(stage string, err error) {
		log.Warn(stage+" failed", "error", err)
		b.stats.RecordFailure()
		if statusOK {
			b.editStatus(status, b.errorText(err))
		} else {
			b.reply(msg.Chat.ID, b.errorText(err))
		}
	}

	if statusOK {
		b.editStatus(status, b.t.Status.Resolving)
	}
	media, err := ext.Extract(link)
	if err != nil {
		fail("extract", err)
		return
	}
	log = log.With("post_id", media.GetID(), "kind", string(media.Type()))

	if statusOK {
		b.editStatus(status, b.t.Status.Downloading)
	}
	payload, err := b.dl.Fetch(media)
	if err != nil {
		fail("download", err)
		return
	}

	if statusOK {
		b.editStatus(status, b.t.Status.Uploading)
	}
	if err := b.upload(msg.Chat.ID, media, payload); err != nil {
		log.Error("upload failed", "error", err)
		b.stats.RecordFailure()
		if statusOK {
			b.editStatus(status, b.t.Errors.UploadFailed)
		} else {
			b.reply(msg.Chat.ID, b.t.Errors.UploadFailed)
		}
		return
	}

	if statusOK {
		b.deleteStatus(status)
	}
	b.stats.RecordSuccess(payload.TotalSize)
	log.Info("relayed",
		"bytes", payload.TotalSize,
		"items", len(payload.Items),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// upload sends the fetched payload back into the chat
func (b *Bot) upload(chatID int64, media extractor.Media, payload *downloader.Payload) error {
	switch payload.Kind {
	case downloader.KindVideo:
		return b.uploadVideo(chatID, media, payload.Items[0])
	case downloader.KindPhotos:
		return b.uploadPhotos(chatID, media, payload.Items)
	default:
		return fmt.Errorf("unknown payload kind %q", payload.Kind)
	}
}

func (b *Bot) uploadVideo(chatID int64, media extractor.Media, item downloader.Item) error {
	ext := item.Ext
	if ext == "" {
		ext = "mp4"
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FileBytes{
		Name:  uploadFilename(media, ext),
		Bytes: item.Data,
	})
	video.SupportsStreaming = true
	video.Caption = b.videoCaption(media)

	_, err := b.api.Send(video)
	return err
}

func (b *Bot) uploadPhotos(chatID int64, media extractor.Media, items []downloader.Item) error {
	caption := fmt.Sprintf(b.t.Bot.PhotosCaption, len(items))
	for i, item := range items {
		ext := item.Ext
		if ext == "" {
			ext = "jpg"
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  fmt.Sprintf("%s_%d.%s", media.GetID(), i+1, ext),
			Bytes: item.Data,
		})
		if i == 0 {
			photo.Caption = caption
		}
		if _, err := b.api.Send(photo); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) videoCaption(media extractor.Media) string {
	source := "TikTok"
	quality := "unknown"
	if v, ok := media.(*extractor.VideoMedia); ok {
		if v.Source != "" {
			source = v.Source
		}
		if len(v.Formats) > 0 {
			quality = v.Formats[0].QualityLabel()
		}
	}
	return fmt.Sprintf(b.t.Bot.VideoCaption, source, quality)
}

// sendStatus posts the progress message. Status updates are best-effort:
// a failure here never aborts the media relay.
func (b *Bot) sendStatus(chatID int64, text string) (tgbotapi.Message, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Debug("status message failed", "error", err)
		return tgbotapi.Message{}, false
	}
	return sent, true
}

func (b *Bot) editStatus(status tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(status.Chat.ID, status.MessageID, text)
	if _, err := b.api.Request(edit); err != nil {
		b.log.Debug("status edit failed", "error", err)
	}
}

func (b *Bot) deleteStatus(status tgbotapi.Message) {
	del := tgbotapi.NewDeleteMessage(status.Chat.ID, status.MessageID)
	if _, err := b.api.Request(del); err != nil {
		// Deletion needs admin rights in some groups; fall back to an edit
		b.log.Debug("status delete failed", "error", err)
		b.editStatus(status, b.t.Status.Done)
	}
}
