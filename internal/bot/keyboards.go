package bot

import (
	"fx-signal-bot/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const (
	uniquePair      = "pair"
	uniqueTimeframe = "tf"
	uniqueRefresh   = "refresh"
	uniqueChange    = "change"
	uniqueTrade     = "trade"

	tradeBuy  = "buy"
	tradeSell = "sell"
)

// Endpoints for callback handlers; only Unique matters for routing.
var (
	btnPair      = &tele.Btn{Unique: uniquePair}
	btnTimeframe = &tele.Btn{Unique: uniqueTimeframe}
	btnRefresh   = &tele.Btn{Unique: uniqueRefresh}
	btnChange    = &tele.Btn{Unique: uniqueChange}
	btnTrade     = &tele.Btn{Unique: uniqueTrade}
)

const pairsPerRow = 2

func pairKeyboard(pairs []string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, (len(pairs)+pairsPerRow-1)/pairsPerRow)
	var row tele.Row
	for _, p := range pairs {
		row = append(row, menu.Data(p, uniquePair, p))
		if len(row) == pairsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	menu.Inline(rows...)
	return menu
}

func timeframeKeyboard(timeframes []domain.Timeframe) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	row := make(tele.Row, 0, len(timeframes))
	for _, tf := range timeframes {
		row = append(row, menu.Data(tf.Label(), uniqueTimeframe, tf.String()))
	}
	menu.Inline(
		row,
		menu.Row(menu.Data("💱 Сменить пару", uniqueChange)),
	)
	return menu
}

// signalKeyboard is attached to every verdict message.
func signalKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("🔄 Обновить", uniqueRefresh)),
		menu.Row(
			menu.Data("🟢 BUY", uniqueTrade, tradeBuy),
			menu.Data("🔴 SELL", uniqueTrade, tradeSell),
		),
		menu.Row(menu.Data("💱 Сменить пару", uniqueChange)),
	)
	return menu
}
