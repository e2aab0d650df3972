// internal/notify/telegram.go
package notify

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxTelegramMessage = 4096

// Telegram sends operator notifications to a Telegram chat. Targets take the
// form "telegram:<chat-id>".
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a Telegram notifier with the given bot token.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// Send delivers a message to the chat named by the target.
func (t *Telegram) Send(target, message string) error {
	idPart := strings.TrimPrefix(target, "telegram:")
	chatID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram target %q: %w", target, err)
	}
	if len(message) > maxTelegramMessage {
		message = message[:maxTelegramMessage]
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
