package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v3"
)

func TestParseAutoMode(t *testing.T) {
	mode, err := parseAutoMode(nil)
	if err != nil || mode != "status" {
		t.Fatalf("expected default status mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAutoMode([]string{"on"})
	if err != nil || mode != "on" {
		t.Fatalf("expected on mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAutoMode([]string{"OFF"})
	if err != nil || mode != "off" {
		t.Fatalf("expected off mode, got mode=%q err=%v", mode, err)
	}

	if _, err := parseAutoMode([]string{"nope"}); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestTelegramSenderSendSignalWithChart(t *testing.T) {
	sender := &fakeSender{}
	ts := NewTelegramSender(sender)

	if err := ts.SendSignal(context.Background(), 10, "🔔 Сигнал EUR/USD M1", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.payloads[10]) != 1 {
		t.Fatalf("expected one message, got %+v", sender.payloads)
	}
	photo, ok := sender.payloads[10][0].(*tele.Photo)
	if !ok || photo.Caption != "🔔 Сигнал EUR/USD M1" {
		t.Fatalf("expected captioned photo, got %#v", sender.payloads[10][0])
	}
	if !sender.hadKeyboard[10][0] {
		t.Fatal("verdict message must carry the action keyboard")
	}
}

func TestTelegramSenderFallsBackToText(t *testing.T) {
	sender := &fakeSender{failPhotos: true}
	ts := NewTelegramSender(sender)

	if err := ts.SendSignal(context.Background(), 10, "verdict", []byte{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sender.messages[10]; len(got) != 1 || got[0] != "verdict" {
		t.Fatalf("expected text fallback, got %+v", got)
	}

	if err := ts.SendSignal(context.Background(), 11, "verdict", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sender.messages[11]; len(got) != 1 {
		t.Fatalf("expected text message without chart, got %+v", got)
	}
}

func TestTelegramSenderSendText(t *testing.T) {
	sender := &fakeSender{}
	ts := NewTelegramSender(sender)
	if err := ts.SendText(context.Background(), 3, "⚠️ Ошибка анализа: x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.messages[3][0] != "⚠️ Ошибка анализа: x" {
		t.Fatalf("unexpected body: %+v", sender.messages[3])
	}
	if sender.hadKeyboard[3][0] {
		t.Fatal("error messages carry no keyboard")
	}

	sender.failAll = true
	if err := ts.SendText(context.Background(), 3, "x"); err == nil {
		t.Fatal("expected send error")
	}
}

type fakeSender struct {
	failPhotos bool
	failAll    bool

	messages    map[int64][]string
	payloads    map[int64][]interface{}
	hadKeyboard map[int64][]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
		f.payloads = make(map[int64][]interface{})
		f.hadKeyboard = make(map[int64][]bool)
	}

	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.failAll {
		return nil, errors.New("telegram unavailable")
	}
	if _, isPhoto := what.(*tele.Photo); isPhoto && f.failPhotos {
		return nil, errors.New("upload failed")
	}
	keyboard := false
	for _, o := range opts {
		if _, ok := o.(*tele.ReplyMarkup); ok {
			keyboard = true
		}
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	f.payloads[chat.ID] = append(f.payloads[chat.ID], what)
	f.hadKeyboard[chat.ID] = append(f.hadKeyboard[chat.ID], keyboard)
	return &tele.Message{}, nil
}
