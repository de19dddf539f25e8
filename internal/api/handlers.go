package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/scheduler"
)

// statusResponse adds the previous_high / previous_low aliases older
// dashboards read.
type statusResponse struct {
	scheduler.Status
	PreviousHigh *decimal.Decimal `json:"previous_high,omitempty"`
	PreviousLow  *decimal.Decimal `json:"previous_low,omitempty"`
}

func newStatusResponse(st scheduler.Status) statusResponse {
	resp := statusResponse{Status: st}
	if st.Levels != nil {
		if st.Levels.HasHigh {
			h := st.Levels.High
			resp.PreviousHigh = &h
		}
		if st.Levels.HasLow {
			l := st.Levels.Low
			resp.PreviousLow = &l
		}
	}
	return resp
}

// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, newStatusResponse(s.Orch.Status()))
}

// GET /api/signals?limit=
func (s *Server) getSignals(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be an integer"})
		return
	}
	signals := s.Orch.Signals(limit)
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

// DELETE /api/signals
func (s *Server) resetSignals(c *gin.Context) {
	s.Orch.ResetSignals()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signal history cleared"})
}

// POST /api/scan
func (s *Server) postScan(c *gin.Context) {
	sig, err := s.Orch.ScanOnce(c.Request.Context())
	st := s.Orch.Status()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{
			"success":       false,
			"error":         err.Error(),
			"message":       "Scan failed. No new signal.",
			"market_status": st.Market,
		})
		return
	}
	if sig == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       fmt.Sprintf("Scan complete. Status: %s. No new signal.", st.Market.Status),
			"signal":        nil,
			"market_status": st.Market,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("%s signal generated at %s", sig.Direction.Action(), notifier.FormatPrice(sig.Price)),
		"signal":        sig,
		"market_status": st.Market,
	})
}

// POST /api/refresh-data
func (s *Server) postRefresh(c *gin.Context) {
	if err := s.Orch.RefreshLevels(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": newStatusResponse(s.Orch.Status())})
}

type setDataRequest struct {
	PreviousHigh  decimal.Decimal  `json:"previous_high"`
	PreviousLow   decimal.Decimal  `json:"previous_low"`
	PreviousClose decimal.Decimal  `json:"previous_close"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
}

// POST /api/set-data
func (s *Server) postSetData(c *gin.Context) {
	var req setDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.PreviousHigh.LessThan(req.PreviousLow) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "previous_high must not be below previous_low"})
		return
	}
	if err := s.Orch.ApplyOverride(req.PreviousHigh, req.PreviousLow, req.PreviousClose, req.CurrentPrice); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Manual levels applied",
		"status":  newStatusResponse(s.Orch.Status()),
	})
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// POST /api/update-price
func (s *Server) postUpdatePrice(c *gin.Context) {
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := s.Orch.UpdatePrice(req.Price); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Price updated to " + notifier.FormatPrice(req.Price)})
}

// DELETE /api/override
func (s *Server) deleteOverride(c *gin.Context) {
	if err := s.Orch.ClearOverride(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Manual overrides cleared"})
}

// POST /api/test-notify
func (s *Server) postTestNotify(c *gin.Context) {
	if s.Sink == nil {
		fail(c, fmt.Errorf("no notifier: %w", model.ErrNotificationFailed))
		return
	}
	if err := s.Sink.SendTest(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test notification sent"})
}

type valueScanRequest struct {
	Conditions []model.Condition `json:"conditions"`
	Symbols    []string          `json:"symbols"`
}

// POST /api/value-scan
func (s *Server) postValueScan(c *gin.Context) {
	if s.Scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "value scanner not configured"})
		return
	}
	var req valueScanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.ScanTimeout)
	defer cancel()
	results, err := s.Scanner.Scan(ctx, req.Conditions, req.Symbols)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error(), "results": results, "count": len(results)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results, "count": len(results)})
}
