package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Used when neither timeout is configured.
	fallbackRequestTimeout = 15 * time.Second
	// Headroom over a market fetch for indicators, the chart and the signal log.
	analysisMargin = 5 * time.Second
)

type ServerConfig struct {
	RequestTimeout time.Duration
	// FetchTimeout is the market data client timeout. Requests never get
	// less than FetchTimeout plus analysisMargin.
	FetchTimeout time.Duration
}

func (c ServerConfig) requestTimeout() time.Duration {
	floor := time.Duration(0)
	if c.FetchTimeout > 0 {
		floor = c.FetchTimeout + analysisMargin
	}
	switch {
	case c.RequestTimeout > floor:
		return c.RequestTimeout
	case floor > 0:
		return floor
	default:
		return fallbackRequestTimeout
	}
}

func NewServer(tracer trace.Tracer, analyzer SignalAnalyzer, history SignalHistory, cfg ServerConfig) *sdkmcp.Server {
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "fx-signal-bot-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools to get RSI/MACD forex signals for supported pairs and to read the signal history.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(deadlineMiddleware(cfg.requestTimeout()))
	if tracer != nil {
		srv.AddReceivingMiddleware(signalSpanMiddleware(tracer))
	}

	registerTools(srv, analyzer, history)
	registerResources(srv, analyzer, history)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func deadlineMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// signalSpanMiddleware opens one span per MCP request. Tool calls are tagged
// with the pair, timeframe and limit they asked for.
func signalSpanMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}
			name := "mcp." + strings.ReplaceAll(method, "/", ".")

			switch r := req.(type) {
			case *sdkmcp.CallToolRequest:
				tool := strings.TrimSpace(r.Params.Name)
				if tool != "" {
					name = "mcp.tool." + tool
					attrs = append(attrs, attribute.String("mcp.tool", tool))
				}
				attrs = append(attrs, toolArgAttributes(r.Params.Arguments)...)
			case *sdkmcp.ReadResourceRequest:
				name = "mcp.resource.read"
				attrs = append(attrs, attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI)))
			}

			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
			defer span.End()

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return result, err
			}
			if callRes, ok := result.(*sdkmcp.CallToolResult); ok && callRes.IsError {
				span.SetStatus(codes.Error, toolResultText(callRes))
			}
			return result, nil
		}
	}
}

// toolArgAttributes reads the normalized signal arguments of a tool call.
// Malformed arguments yield no attributes; the tool itself rejects them.
func toolArgAttributes(raw json.RawMessage) []attribute.KeyValue {
	if len(raw) == 0 {
		return nil
	}
	var args struct {
		Pair      string `json:"pair"`
		Timeframe string `json:"timeframe"`
		Limit     int    `json:"limit"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	var attrs []attribute.KeyValue
	if pair, err := normalizePair(args.Pair); err == nil {
		attrs = append(attrs, attribute.String("pair", pair))
	}
	if args.Timeframe != "" {
		if tf, err := normalizeTimeframe(args.Timeframe); err == nil {
			attrs = append(attrs, attribute.String("timeframe", string(tf)))
		}
	}
	if args.Limit > 0 {
		attrs = append(attrs, attribute.Int("limit", normalizeSignalLimit(args.Limit)))
	}
	return attrs
}

func toolResultText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool error"
}
