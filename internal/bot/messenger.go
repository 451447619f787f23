package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of the Telegram API the bot actually calls.
// *tgbotapi.BotAPI satisfies it, tests swap in a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// telegramMessenger adapts the Telegram API to the workflow's delivery
// surface
type telegramMessenger struct {
	tg sender
}

func (m *telegramMessenger) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := m.tg.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *telegramMessenger) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := m.tg.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (m *telegramMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := m.tg.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (m *telegramMessenger) SendVideoFile(ctx context.Context, chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true
	_, err := m.tg.Send(video)
	return err
}

func (m *telegramMessenger) SendVideoURL(ctx context.Context, chatID int64, url, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
	video.Caption = caption
	video.SupportsStreaming = true
	_, err := m.tg.Send(video)
	return err
}
