package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, analyzer SignalAnalyzer, history SignalHistory) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-pairs",
		Name:        "supported-pairs",
		Description: "Currency pairs the bot can analyze",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if analyzer == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}
		return jsonResource(req.Params.URI, analyzer.Pairs())
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://supported-timeframes",
		Name:        "supported-timeframes",
		Description: "Bar intervals with their display labels",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if analyzer == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}
		return jsonResource(req.Params.URI, timeframeInfos(analyzer.Timeframes()))
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "signals://latest{?pair,limit}",
		Name:        "signals-latest",
		Description: "Recently persisted signals with optional pair and limit query params",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if history == nil {
			return nil, fmt.Errorf("signal history unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "signals" || parsed.Host != "latest" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		in := signalsHistoryInput{Pair: parsed.Query().Get("pair")}
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			in.Limit = n
		}

		list, err := history.ListSignals(ctx, normalizeHistoryFilter(in))
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, signalsHistoryOutput{Signals: list})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
