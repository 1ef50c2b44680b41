// Package bot is the Telegram gateway: it upserts accounts when players
// first talk to the bot and delivers outbound notification text.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"magnate/internal/game"
)

const welcomeText = `Welcome to Magnate! 💰

Grow your empire:
• Buy investments and level them up.
• Earn passive income every minute, even while away.
• Climb the income curve with smarter upgrades.

Open the game below to get started.`

type Bot struct {
	api       *tgbotapi.BotAPI
	game      *game.Service
	webappURL string
	log       *slog.Logger
}

func New(token, webappURL string, svc *game.Service, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return &Bot{api: api, game: svc, webappURL: webappURL, log: logger}, nil
}

// Run consumes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() && msg.Command() == "start" {
		b.handleStart(ctx, msg)
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Send /start to open the game.")
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("telegram send failed", "chat", msg.Chat.ID, "err", err)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	id := strconv.FormatInt(from.ID, 10)
	if _, err := b.game.EnsureAccount(ctx, id, from.FirstName, from.UserName); err != nil {
		b.log.Error("account upsert failed", "telegram_id", id, "err", err)
		out := tgbotapi.NewMessage(msg.Chat.ID, "Something went wrong, please try again later.")
		_, _ = b.api.Send(out)
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, welcomeText)
	if b.webappURL != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.InlineKeyboardButton{
					Text:   "🎮 Play Magnate",
					WebApp: &tgbotapi.WebAppInfo{URL: b.webappURL},
				},
			),
		)
	}
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("welcome send failed", "chat", msg.Chat.ID, "err", err)
	}
}

// SendText delivers a plain text message to an account's chat.
// Implements the notify.Gateway contract.
func (b *Bot) SendText(accountID, text string) error {
	chatID, err := strconv.ParseInt(accountID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad account id %q: %w", accountID, err)
	}
	_, err = b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
