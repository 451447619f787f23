package bot

import (
	"context"
	"sort"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yasarefe-official/igxdown/pkg/lang"
	"github.com/yasarefe-official/igxdown/pkg/logger"
	"github.com/yasarefe-official/igxdown/pkg/workflow"
)

const langCallbackPrefix = "lang:"

// runner is the piece of the workflow engine the bot dispatches into
type runner interface {
	Handle(ctx context.Context, req workflow.Request) error
}

// Bot owns the long-polling loop. Link messages are handed to the
// workflow engine on worker goroutines bounded by a semaphore, commands
// are answered inline.
type Bot struct {
	api       *tgbotapi.BotAPI
	tg        sender
	engine    runner
	localizer *lang.Localizer
	store     *lang.Store
	timeout   int
	sem       chan struct{}
	wg        sync.WaitGroup
	logger    logger.Logger
}

// New wires the bot around an authorized Telegram API client
func New(api *tgbotapi.BotAPI, engine runner, localizer *lang.Localizer, store *lang.Store, updateTimeout, concurrency int, log logger.Logger) *Bot {
	if log == nil {
		log = logger.GetLogger()
	}
	if updateTimeout <= 0 {
		updateTimeout = 30
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Bot{
		api:       api,
		tg:        api,
		engine:    engine,
		localizer: localizer,
		store:     store,
		timeout:   updateTimeout,
		sem:       make(chan struct{}, concurrency),
		logger:    log,
	}
}

// NewMessenger exposes the Telegram delivery surface for the workflow
// engine
func NewMessenger(api *tgbotapi.BotAPI) workflow.Messenger {
	return &telegramMessenger{tg: api}
}

// Run polls for updates until ctx is cancelled, then waits for
// in-flight downloads to finish.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.WithField("username", b.api.Self.UserName).Info("bot started")

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.timeout
	updateCfg.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("waiting for in-flight downloads")
			b.wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		b.dispatchLink(ctx, update.Message)
	}
}

// dispatchLink runs the download workflow on a bounded worker goroutine
// so one slow download never blocks the poll loop
func (b *Bot) dispatchLink(ctx context.Context, msg *tgbotapi.Message) {
	req := workflow.Request{
		ChatID:  msg.Chat.ID,
		UserID:  msg.From.ID,
		RawText: msg.Text,
	}

	b.sem <- struct{}{}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.sem
			b.wg.Done()
		}()
		if err := b.engine.Handle(ctx, req); err != nil {
			b.logger.WithError(err).WithField("user_id", req.UserID).Debug("request finished with failure")
		}
	}()
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.sendText(msg.Chat.ID, b.localizer.Text(userID, lang.KeyStart))
	case "help":
		b.sendText(msg.Chat.ID, b.localizer.Text(userID, lang.KeyHelp))
	case "language":
		prompt := tgbotapi.NewMessage(msg.Chat.ID, b.localizer.Text(userID, lang.KeyChooseLanguage))
		prompt.ReplyMarkup = languageKeyboard()
		if _, err := b.tg.Send(prompt); err != nil {
			b.logger.WithError(err).Warn("failed to send language prompt")
		}
	default:
		b.sendText(msg.Chat.ID, b.localizer.Text(userID, lang.KeyHelp))
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	code, ok := parseLangCallback(cb.Data)
	if !ok {
		return
	}

	userID := cb.From.ID
	if err := b.store.Set(userID, code); err != nil {
		b.logger.WithError(err).Warn("failed to store language choice")
		return
	}

	if _, err := b.tg.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.WithError(err).Debug("failed to answer callback")
	}

	if cb.Message != nil {
		edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, b.localizer.Text(userID, lang.KeyLanguageSet))
		if _, err := b.tg.Send(edit); err != nil {
			b.logger.WithError(err).Debug("failed to edit language prompt")
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.WithError(err).Warn("failed to send message")
	}
}

// languageKeyboard builds one button per catalog language, in stable
// alphabetical order
func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	codes := make([]string, 0, len(lang.Names))
	for code := range lang.Names {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var buttons []tgbotapi.InlineKeyboardButton
	for _, code := range codes {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(lang.Names[code], langCallbackPrefix+code))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
}

func parseLangCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, langCallbackPrefix) {
		return "", false
	}
	code := strings.TrimPrefix(data, langCallbackPrefix)
	if !lang.Supported(code) {
		return "", false
	}
	return code, true
}
