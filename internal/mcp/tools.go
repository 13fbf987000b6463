package mcp

import (
	"context"
	"errors"
	"fmt"

	"fx-signal-bot/internal/report"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, analyzer SignalAnalyzer, history SignalHistory) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "pairs_list",
		Description: "List supported currency pairs and timeframes",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ pairsListInput) (*mcp.CallToolResult, pairsListOutput, error) {
		if analyzer == nil {
			return nil, pairsListOutput{}, fmt.Errorf("signal service unavailable")
		}
		return nil, pairsListOutput{
			Pairs:      analyzer.Pairs(),
			Timeframes: timeframeInfos(analyzer.Timeframes()),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signal_analyze",
		Description: "Fetch fresh bars for a pair and classify the latest RSI and MACD into a BUY, SELL or NEUTRAL verdict",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalAnalyzeInput) (*mcp.CallToolResult, signalAnalyzeOutput, error) {
		if analyzer == nil {
			return nil, signalAnalyzeOutput{}, fmt.Errorf("signal service unavailable")
		}
		pair, err := normalizePair(in.Pair)
		if err != nil {
			return nil, signalAnalyzeOutput{}, err
		}
		tf, err := normalizeTimeframe(in.Timeframe)
		if err != nil {
			return nil, signalAnalyzeOutput{}, err
		}

		analysis, err := analyzer.Analyze(ctx, pair, tf)
		if err != nil {
			return nil, signalAnalyzeOutput{}, errors.New(report.FormatError(err))
		}
		return nil, signalAnalyzeOutput{
			Analysis:     analysis,
			ActionWindow: report.ActionWindow(analysis.Verdict.Strength),
			Message:      report.FormatVerdict(analysis),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_history",
		Description: "List recently persisted signals, newest first, optionally filtered by pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsHistoryInput) (*mcp.CallToolResult, signalsHistoryOutput, error) {
		if history == nil {
			return nil, signalsHistoryOutput{}, fmt.Errorf("signal history unavailable")
		}
		list, err := history.ListSignals(ctx, normalizeHistoryFilter(in))
		if err != nil {
			return nil, signalsHistoryOutput{}, err
		}
		return nil, signalsHistoryOutput{Signals: list}, nil
	})
}
