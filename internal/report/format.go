package report

import (
	"fmt"
	"strings"

	"fx-signal-bot/internal/domain"
)

const ErrorPrefix = "⚠️ Ошибка анализа: "

// ActionWindow is the suggested holding time; it depends only on strength.
func ActionWindow(s domain.Strength) string {
	switch s {
	case domain.StrengthStrong:
		return "3–5 мин"
	case domain.StrengthModerate:
		return "1–3 мин"
	default:
		return "1 мин"
	}
}

func directionLine(d domain.Direction) string {
	switch d {
	case domain.DirectionBuy:
		return "🟢 BUY (вверх)"
	case domain.DirectionSell:
		return "🔴 SELL (вниз)"
	default:
		return "⚪️ Нет сигнала (нейтрально)"
	}
}

func strengthLabel(s domain.Strength) string {
	switch s {
	case domain.StrengthStrong:
		return "сильный"
	case domain.StrengthModerate:
		return "умеренный"
	default:
		return "слабый"
	}
}

// FormatVerdict renders the chat message for an analysis.
func FormatVerdict(a *domain.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 Сигнал %s %s\n", a.Pair, a.Timeframe.Label())
	fmt.Fprintf(&sb, "%s\n", directionLine(a.Verdict.Direction))
	fmt.Fprintf(&sb, "💪 Сила: %s\n", strengthLabel(a.Verdict.Strength))
	fmt.Fprintf(&sb, "📊 RSI: %.2f\n", a.Verdict.RSI)
	fmt.Fprintf(&sb, "📈 MACD: %.4f\n", a.Verdict.MACD)
	if a.Snapshot.MACDSignal != nil {
		fmt.Fprintf(&sb, "〰️ Сигнальная линия: %.4f\n", *a.Snapshot.MACDSignal)
	}
	fmt.Fprintf(&sb, "⏳ Время: %s", ActionWindow(a.Verdict.Strength))
	return sb.String()
}

// ErrorReason is the user-facing explanation for an error kind.
func ErrorReason(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindTransport:
		return "сервис котировок недоступен, попробуйте позже"
	case domain.KindDataUnavailable:
		return "провайдер не вернул данные (лимит запросов или неверный символ)"
	case domain.KindInsufficient:
		return "недостаточно данных для расчёта индикаторов"
	case domain.KindInvalidRequest:
		return "неподдерживаемая пара или таймфрейм"
	case domain.KindPersistence:
		return "не удалось сохранить сигнал"
	default:
		return "внутренняя ошибка"
	}
}

func FormatError(err error) string {
	return ErrorPrefix + ErrorReason(domain.KindOf(err))
}
