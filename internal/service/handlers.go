package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"qwenrotate-go/internal/rotation"
)

type switchRequest struct {
	Index  int    `json:"index" binding:"required"`
	Reason string `json:"reason"`
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	state := s.manager.GetState()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"current_account": state.CurrentIndex,
		"total_accounts":  state.TotalAccounts,
	})
}

func (s *Server) handleAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": s.manager.ListAccounts()})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.GetStats())
}

func (s *Server) handleSwitch(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	reason := rotation.ParseSwitchReason(req.Reason)
	if err := s.manager.SwitchTo(req.Index, reason); err != nil {
		s.renderSwitchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"switched": true,
		"index":    req.Index,
		"reason":   string(reason),
	})
}

func (s *Server) handleSwitchNext(c *gin.Context) {
	advanced, newIndex, err := s.manager.SwitchNext(rotation.ReasonManual)
	if err != nil {
		s.renderSwitchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"switched": true,
		"index":    newIndex,
		"advanced": advanced,
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	result := s.caller.Call(c.Request.Context(), req.Prompt)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// pingResult is the per-account outcome of a canary run.
type pingResult struct {
	Index      int    `json:"index"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// handlePingAll walks every discovered account, activates it, and fires the
// canary prompt against the wrapped tool. The original account is restored
// afterwards so a health sweep never changes which account callers see.
func (s *Server) handlePingAll(c *gin.Context) {
	original := s.manager.GetState().CurrentIndex
	indices := s.manager.Slots().Discover()
	if len(indices) == 0 {
		c.JSON(http.StatusOK, gin.H{"results": []pingResult{}, "healthy": 0, "total": 0})
		return
	}

	results := make([]pingResult, 0, len(indices))
	healthy := 0
	for _, idx := range indices {
		res := pingResult{Index: idx}
		if err := s.manager.SwitchTo(idx, rotation.ReasonTest); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		start := time.Now()
		call := s.runner.Run(c.Request.Context(), s.cfg.PingPrompt)
		res.DurationMS = time.Since(start).Milliseconds()
		res.Success = call.Success
		if !call.Success {
			res.Error = call.Error
		} else {
			healthy++
		}
		results = append(results, res)
	}

	if err := s.manager.SwitchTo(original, rotation.ReasonTest); err != nil {
		log.WithError(err).Warnf("failed to restore account %d after ping sweep", original)
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"healthy": healthy,
		"total":   len(indices),
	})
}

func (s *Server) renderSwitchError(c *gin.Context, err error) {
	var notFound *rotation.AccountNotFoundError
	var lockErr *rotation.LockError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &lockErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": lockErr.Error()})
	default:
		log.WithError(err).Error("account switch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account switch failed"})
	}
}
