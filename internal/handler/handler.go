package handler

import (
	"net/http"
	"strings"

	"fx-signal-bot/internal/service"
	"fx-signal-bot/internal/stream"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	signalService *service.SignalService
	hub           *stream.Hub
	gatherer      prometheus.Gatherer
}

// New builds the HTTP handlers. hub and gatherer may be nil, which leaves
// /ws/signals and /metrics unregistered.
func New(
	tracer trace.Tracer,
	signalService *service.SignalService,
	hub *stream.Hub,
	gatherer prometheus.Gatherer,
) *Handler {
	return &Handler{
		tracer:        tracer,
		signalService: signalService,
		hub:           hub,
		gatherer:      gatherer,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/pairs", h.GetPairs)
	r.GET("/api/signal", h.GetSignal)
	r.GET("/api/signal/chart", h.GetSignalChart)
	r.GET("/api/signals", h.GetSignals)
	if h.hub != nil {
		r.GET("/ws/signals", h.StreamSignals)
	}
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// CORS allows the listed origins, or any origin when the list is empty or "*".
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{"Content-Length"}

	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 || (len(cleaned) == 1 && cleaned[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = cleaned
	}
	return cors.New(cfg)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StreamSignals godoc
// @Summary      Live verdict feed
// @Description  Upgrades to a websocket that receives every reported analysis
// @Tags         signals
// @Router       /ws/signals [get]
func (h *Handler) StreamSignals(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
