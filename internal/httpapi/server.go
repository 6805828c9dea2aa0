// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/hex"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/status"
)

// Bank is the read side of a polling session.
type Bank interface {
	ID() string
	Pack() (bms.PackTelemetry, bool)
	Units() map[bms.UnitAddress]bms.UnitTelemetry
	Presence() bms.PresenceSet
	Hardware(addr bms.UnitAddress) (bms.HardwareInfo, bool)

	// Live bus reads; they wait for any running refresh cycle.
	UnitTelemetry(ctx context.Context, addr bms.UnitAddress) (bms.UnitTelemetry, error)
	ConfigBlock(ctx context.Context) ([]byte, error)
}

// LiveReadTimeout bounds one live bus read made for an HTTP request.
const LiveReadTimeout = 10 * time.Second

// HealthFunc returns the current status snapshot.
type HealthFunc func() status.Snapshot

// Server wraps the gin engine and its http.Server.
type Server struct {
	srv *http.Server
}

// New builds the router. metrics may be nil.
func New(addr string, bank Bank, health HealthFunc, metrics http.Handler, log *zap.Logger) *Server {
	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      Router(bank, health, metrics, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}}
}

// Router registers every route on a fresh engine.
func Router(bank Bank, health HealthFunc, metrics http.Handler, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	h := &handler{bank: bank, health: health, log: log}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if _, ok := bank.Pack(); ok {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/pack", h.pack)
	v1.GET("/units", h.units)
	v1.GET("/units/:addr", h.unit)
	v1.GET("/presence", h.presence)
	v1.GET("/health", h.healthz)
	v1.GET("/config", h.configBlock)

	return r
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ---- handlers ----

type handler struct {
	bank   Bank
	health HealthFunc
	log    *zap.Logger
}

func (h *handler) pack(c *gin.Context) {
	p, ok := h.bank.Pack()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no pack published yet"})
		return
	}
	c.JSON(http.StatusOK, newPackView(p))
}

func (h *handler) units(c *gin.Context) {
	recs := h.bank.Units()
	addrs := make([]bms.UnitAddress, 0, len(recs))
	for a := range recs {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	out := make([]unitView, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, h.unitView(recs[a]))
	}
	c.JSON(http.StatusOK, gin.H{"units": out})
}

func (h *handler) unit(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("addr"))
	addr := bms.UnitAddress(n)
	if err != nil || n < 0 || n > 255 || !addr.Valid() {
		h.log.Debug("rejected unit address", zap.String("addr", c.Param("addr")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit address"})
		return
	}

	if c.Query("live") == "1" || c.Query("live") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), LiveReadTimeout)
		defer cancel()

		u, err := h.bank.UnitTelemetry(ctx, addr)
		if err != nil {
			h.busError(c, err)
			return
		}
		c.JSON(http.StatusOK, h.unitView(u))
		return
	}

	u, ok := h.bank.Units()[addr]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no telemetry for unit"})
		return
	}
	c.JSON(http.StatusOK, h.unitView(u))
}

func (h *handler) unitView(u bms.UnitTelemetry) unitView {
	if hw, ok := h.bank.Hardware(u.Address); ok {
		return newUnitView(u, &hw)
	}
	return newUnitView(u, nil)
}

func (h *handler) presence(c *gin.Context) {
	present := h.bank.Presence().Present()
	out := make([]int, 0, len(present))
	for _, a := range present {
		out = append(out, int(a))
	}
	c.JSON(http.StatusOK, gin.H{"present": out})
}

func (h *handler) healthz(c *gin.Context) {
	var s status.Snapshot
	if h.health != nil {
		s = h.health()
	}
	resp := gin.H{
		"session":          h.bank.ID(),
		"health":           status.HealthText(s.Health),
		"health_code":      s.Health,
		"last_error_code":  s.LastErrorCode,
		"seconds_in_error": s.SecondsInError,
		"units_present":    s.UnitsPresent,
	}
	if p, ok := h.bank.Pack(); ok {
		resp["updated_at"] = p.UpdatedAt
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) configBlock(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), LiveReadTimeout)
	defer cancel()

	block, err := h.bank.ConfigBlock(ctx)
	if err != nil {
		h.busError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"unit":  int(bms.MasterAddress),
		"bytes": len(block),
		"hex":   hex.EncodeToString(block),
	})
}

// busError reports a failed live read with its status-block error code.
func (h *handler) busError(c *gin.Context, err error) {
	h.log.Error("live read failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{
		"error": err.Error(),
		"code":  bms.ErrorCode(err),
	})
}
