package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// DiscordSink forwards events to a Discord channel
type DiscordSink struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscordSink creates a new DiscordSink
func NewDiscordSink(token, channelID string, logger *zap.Logger) (*DiscordSink, error) {
	if token == "" || channelID == "" {
		return nil, errors.New(errors.ErrChannelUnavailable.Code, "discord token or channel not configured")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrChannelUnavailable.Code, "failed to create discord session")
	}
	if err := session.Open(); err != nil {
		return nil, errors.Wrap(err, errors.ErrChannelUnavailable.Code, "failed to open discord session")
	}

	logger.Info("discord sink ready", zap.String("channel_id", channelID))
	return &DiscordSink{
		session:   session,
		channelID: channelID,
		logger:    logger,
	}, nil
}

// Name returns the sink identifier
func (s *DiscordSink) Name() string {
	return "discord"
}

// Send posts the event as an embed
func (s *DiscordSink) Send(_ context.Context, event Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       event.Title,
		Description: event.Body,
		Timestamp:   event.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if _, err := s.session.ChannelMessageSendEmbed(s.channelID, embed); err != nil {
		return errors.Wrap(err, errors.ErrChannelUnavailable.Code, fmt.Sprintf("discord send to %s failed", s.channelID))
	}
	return nil
}

// Close shuts down the underlying session
func (s *DiscordSink) Close() error {
	return s.session.Close()
}
