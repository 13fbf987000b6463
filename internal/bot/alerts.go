package bot

import (
	"fmt"
	"strings"

	"fx-signal-bot/internal/job"
	"fx-signal-bot/internal/session"
)

// AutoRefresh is the subscription registry owned by the auto-refresh job.
type AutoRefresh interface {
	Subscribe(sub job.Subscription) bool
	Unsubscribe(chatID int64) bool
	Subscription(chatID int64) (job.Subscription, bool)
}

const autoUsage = "Использование: /auto on | /auto off | /auto status"

func parseAutoMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

// autoReply applies mode for the chat and returns the reply text.
func autoReply(auto AutoRefresh, s session.Session, mode string) string {
	switch mode {
	case "on":
		if s.State != session.StateReady {
			return "Сначала выберите пару и таймфрейм через /signal."
		}
		sub := job.Subscription{ChatID: s.ChatID, Pair: s.Pair, Timeframe: s.Timeframe}
		if auto.Subscribe(sub) {
			return fmt.Sprintf("🔁 Автообновление включено: %s %s.", sub.Pair, sub.Timeframe.Label())
		}
		return fmt.Sprintf("🔁 Автообновление обновлено: %s %s.", sub.Pair, sub.Timeframe.Label())
	case "off":
		if auto.Unsubscribe(s.ChatID) {
			return "Автообновление выключено."
		}
		return "Автообновление уже выключено."
	default:
		if sub, ok := auto.Subscription(s.ChatID); ok {
			return fmt.Sprintf("Автообновление: ВКЛ (%s %s)", sub.Pair, sub.Timeframe.Label())
		}
		return "Автообновление: ВЫКЛ"
	}
}
