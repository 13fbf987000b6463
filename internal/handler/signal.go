package handler

import (
	"net/http"
	"strconv"
	"strings"

	"fx-signal-bot/internal/chart"
	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/report"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SignalResponse is the JSON body of /api/signal.
type SignalResponse struct {
	Analysis     *domain.Analysis `json:"analysis"`
	ActionWindow string           `json:"action_window"`
	Message      string           `json:"message"`
}

// GetPairs godoc
// @Summary      Supported pairs and timeframes
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/pairs [get]
func (h *Handler) GetPairs(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pairs":      h.signalService.Pairs(),
		"timeframes": h.signalService.Timeframes(),
	})
}

// GetSignal godoc
// @Summary      Analyze a pair
// @Description  Fetches fresh bars, computes RSI and MACD and classifies them. Nothing is stored.
// @Tags         signals
// @Produce      json
// @Param        pair       query  string  true   "Currency pair (e.g., EUR/USD)"
// @Param        timeframe  query  string  false  "1min, 5min or 15min"  default(1min)
// @Success      200  {object}  SignalResponse
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signal [get]
func (h *Handler) GetSignal(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	pair, tf, ok := h.parseSelection(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("pair", pair), attribute.String("timeframe", tf.String()))

	analysis, err := h.signalService.Analyze(ctx, pair, tf)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, SignalResponse{
		Analysis:     analysis,
		ActionWindow: report.ActionWindow(analysis.Verdict.Strength),
		Message:      report.FormatVerdict(analysis),
	})
}

// GetSignalChart godoc
// @Summary      Chart for a fresh analysis
// @Description  Returns a PNG with candles, RSI and MACD panels and the verdict marker
// @Tags         signals
// @Produce      png
// @Param        pair       query  string  true   "Currency pair (e.g., EUR/USD)"
// @Param        timeframe  query  string  false  "1min, 5min or 15min"  default(1min)
// @Success      200  {file}  binary
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signal/chart [get]
func (h *Handler) GetSignalChart(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-chart")
	defer span.End()

	pair, tf, ok := h.parseSelection(c)
	if !ok {
		return
	}

	png, _, err := h.signalService.Chart(ctx, pair, tf)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	c.Data(http.StatusOK, chart.MimeType, png)
}

// GetSignals godoc
// @Summary      Signal log
// @Description  Returns recorded verdicts, newest first, optionally filtered by pair
// @Tags         signals
// @Produce      json
// @Param        pair   query  string  false  "Currency pair (e.g., EUR/USD)"
// @Param        limit  query  int     false  "Number of signals (default 50, max 200)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	filter := domain.SignalFilter{Pair: strings.TrimSpace(c.Query("pair"))}
	if filter.Pair != "" {
		span.SetAttributes(attribute.String("pair", filter.Pair))
	}

	limit := 50
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	filter.Limit = limit

	signals, err := h.signalService.ListSignals(ctx, filter)
	if err != nil {
		if domain.KindOf(err) == domain.KindInvalidRequest {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           err.Error(),
				"supported_pairs": h.signalService.Pairs(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

func (h *Handler) parseSelection(c *gin.Context) (string, domain.Timeframe, bool) {
	pair := strings.TrimSpace(c.Query("pair"))
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "pair is required",
			"supported_pairs": h.signalService.Pairs(),
		})
		return "", "", false
	}
	rawTF := strings.TrimSpace(c.DefaultQuery("timeframe", string(domain.Timeframe1m)))
	tf, err := domain.ParseTimeframe(rawTF)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                err.Error(),
			"supported_timeframes": h.signalService.Timeframes(),
		})
		return "", "", false
	}
	return pair, tf, true
}

func writeAnalysisError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{
		"error":   err.Error(),
		"kind":    kind,
		"message": report.FormatError(err),
	})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindInsufficient:
		return http.StatusUnprocessableEntity
	case domain.KindTransport, domain.KindDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
