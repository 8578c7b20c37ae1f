package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/service"
)

type SessionHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Start(c *gin.Context)
	Pause(c *gin.Context)
	Stop(c *gin.Context)
	UpdateStatistics(c *gin.Context)
}

type sessionHandler struct {
	sessions service.SessionService
	logger   *zap.Logger
}

func NewSessionHandler(sessions service.SessionService, logger *zap.Logger) SessionHandler {
	return &sessionHandler{sessions: sessions, logger: logger}
}

type SessionRequest struct {
	PlatformID           int64  `json:"platform_id" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description"`
	TargetChannels       string `json:"target_channels"`
	Keywords             string `json:"keywords"`
	MonitoringInterval   int    `json:"monitoring_interval"`
	MaxContentPerSession int    `json:"max_content_per_session"`
}

func (h *sessionHandler) Create(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := &models.MonitoringSession{
		PlatformID:           req.PlatformID,
		UserID:               c.GetInt64("user_id"),
		Name:                 req.Name,
		Description:          req.Description,
		TargetChannels:       req.TargetChannels,
		Keywords:             req.Keywords,
		MonitoringInterval:   req.MonitoringInterval,
		MaxContentPerSession: req.MaxContentPerSession,
	}

	created, err := h.sessions.Create(session)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *sessionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *sessionHandler) List(c *gin.Context) {
	var userID int64
	if id, err := parseQueryID(c, "user_id"); err == nil {
		userID = id
	}
	sessions, err := h.sessions.List(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *sessionHandler) Start(c *gin.Context) {
	h.transition(c, h.sessions.Start)
}

func (h *sessionHandler) Pause(c *gin.Context) {
	h.transition(c, h.sessions.Pause)
}

func (h *sessionHandler) Stop(c *gin.Context) {
	h.transition(c, h.sessions.Stop)
}

func (h *sessionHandler) transition(c *gin.Context, apply func(int64) (*models.MonitoringSession, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := apply(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type StatisticsRequest struct {
	ContentCount int64 `json:"content_count"`
	Detections   int64 `json:"detections"`
	Errors       int64 `json:"errors"`
}

func (h *sessionHandler) UpdateStatistics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.UpdateStatistics(id, req.ContentCount, req.Detections, req.Errors)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
