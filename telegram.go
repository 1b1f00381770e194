package govwatch

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends new-item notifications to a Telegram chat. All
// topics land in the one configured chat; the topic is carried in the
// message text so a chat following several sites stays readable.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a Telegram notifier. The token comes from
// @BotFather, the chat ID from the chat the bot was added to.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify implements the Notifier interface.
func (t *TelegramNotifier) Notify(_ context.Context, topic, title, link string) error {
	text := fmt.Sprintf("[%s] %s\n%s", topic, title, link)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}
