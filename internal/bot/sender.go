package bot

import (
	"bytes"
	"context"
	"fmt"
	"log"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramSender delivers reporter output through the bot API.
type TelegramSender struct {
	api messageSender
}

func NewTelegramSender(api messageSender) *TelegramSender {
	return &TelegramSender{api: api}
}

// SendSignal sends the chart as a photo captioned with text, falling back to a
// plain message when there is no chart or the upload fails.
func (s *TelegramSender) SendSignal(ctx context.Context, chatID int64, text string, chart []byte) error {
	_ = ctx
	to := &tele.Chat{ID: chatID}
	if len(chart) > 0 {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(chart)),
			Caption: text,
		}
		_, err := s.api.Send(to, photo, signalKeyboard())
		if err == nil {
			return nil
		}
		log.Printf("chart upload error for chat %d, sending text: %v", chatID, err)
	}
	if _, err := s.api.Send(to, text, signalKeyboard()); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}
	return nil
}

func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	_ = ctx
	if _, err := s.api.Send(&tele.Chat{ID: chatID}, text); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}
