package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// TelegramSink forwards events to a Telegram chat
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramSink creates a new TelegramSink
func NewTelegramSink(token string, chatID int64, logger *zap.Logger) (*TelegramSink, error) {
	if token == "" {
		return nil, errors.New(errors.ErrChannelUnavailable.Code, "telegram bot token not configured")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrChannelUnavailable.Code, "failed to connect to telegram")
	}

	logger.Info("telegram sink ready", zap.String("bot", bot.Self.UserName))
	return &TelegramSink{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Name returns the sink identifier
func (s *TelegramSink) Name() string {
	return "telegram"
}

// Send posts the event as a Markdown message
func (s *TelegramSink) Send(_ context.Context, event Event) error {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("*%s*\n%s", event.Title, event.Body))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := s.bot.Send(msg); err != nil {
		return errors.Wrap(err, errors.ErrChannelUnavailable.Code, "telegram send failed")
	}
	return nil
}
