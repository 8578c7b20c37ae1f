package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/models"
	"backend/internal/service"
)

type AnalyticsHandler interface {
	Dashboard(c *gin.Context)
	DetectionDaily(c *gin.Context)
	MonitoringDaily(c *gin.Context)
	AlertMetrics(c *gin.Context)
	AcknowledgeAlert(c *gin.Context)
	ResolveAlert(c *gin.Context)
	RecordPerformance(c *gin.Context)
	PerformanceMetrics(c *gin.Context)
	RecordGeographic(c *gin.Context)
	Geographic(c *gin.Context)
	RecordTrend(c *gin.Context)
	Trends(c *gin.Context)
}

type analyticsHandler struct {
	aggregator *service.Aggregator
	logger     *zap.Logger
}

func NewAnalyticsHandler(aggregator *service.Aggregator, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{aggregator: aggregator, logger: logger}
}

func (h *analyticsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.aggregator.GetDashboard()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// dateRange parses from/to query parameters, defaulting to the last 7 days.
func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperr.Validation("to must not precede from")
	}
	return from, to, nil
}

func (h *analyticsHandler) DetectionDaily(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rollups, err := h.aggregator.DetectionDaily(from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": rollups})
}

func (h *analyticsHandler) MonitoringDaily(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rollups, err := h.aggregator.MonitoringDaily(from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": rollups})
}

func (h *analyticsHandler) AlertMetrics(c *gin.Context) {
	metrics, err := h.aggregator.AlertMetrics()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": metrics})
}

type AlertActionRequest struct {
	AlertType string `json:"alert_type" binding:"required"`
}

func (h *analyticsHandler) AcknowledgeAlert(c *gin.Context) {
	var req AlertActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.aggregator.AcknowledgeAlert(req.AlertType); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert acknowledged"})
}

func (h *analyticsHandler) ResolveAlert(c *gin.Context) {
	var req AlertActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.aggregator.ResolveAlert(req.AlertType); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert resolved"})
}

func (h *analyticsHandler) RecordPerformance(c *gin.Context) {
	var metric models.PerformanceMetric
	if err := c.ShouldBindJSON(&metric); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if metric.Category == "" || metric.MetricName == "" {
		respondError(c, h.logger, apperr.Validation("category and metric_name are required"))
		return
	}
	if err := h.aggregator.RecordPerformance(&metric); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, metric)
}

func (h *analyticsHandler) PerformanceMetrics(c *gin.Context) {
	metrics, err := h.aggregator.PerformanceMetrics(c.Query("category"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

func (h *analyticsHandler) RecordGeographic(c *gin.Context) {
	var analysis models.GeographicAnalysis
	if err := c.ShouldBindJSON(&analysis); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.aggregator.RecordGeographic(&analysis); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (h *analyticsHandler) RecordTrend(c *gin.Context) {
	var trend models.TrendAnalysis
	if err := c.ShouldBindJSON(&trend); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.aggregator.RecordTrend(&trend); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, trend)
}

func (h *analyticsHandler) Trends(c *gin.Context) {
	trends, err := h.aggregator.Trends(c.Query("metric_type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

func (h *analyticsHandler) Geographic(c *gin.Context) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, h.logger, apperr.Validation("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	analyses, err := h.aggregator.Geographic(date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"geographic": analyses})
}
