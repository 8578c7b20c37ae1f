package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/crypto"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"
)

type PlatformHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Update(c *gin.Context)

	GetConnection(c *gin.Context)
	ListConnections(c *gin.Context)
	Connect(c *gin.Context)
	Disconnect(c *gin.Context)
	ResetErrors(c *gin.Context)
}

type platformHandler struct {
	platforms   repository.PlatformRepository
	connections service.ConnectionService
	sealer      *crypto.Sealer
	logger      *zap.Logger
}

func NewPlatformHandler(platforms repository.PlatformRepository, connections service.ConnectionService, sealer *crypto.Sealer, logger *zap.Logger) PlatformHandler {
	return &platformHandler{
		platforms:   platforms,
		connections: connections,
		sealer:      sealer,
		logger:      logger,
	}
}

type PlatformRequest struct {
	Name              string `json:"name" binding:"required"`
	PlatformType      string `json:"platform_type" binding:"required"`
	APIEndpoint       string `json:"api_endpoint"`
	APIKey            string `json:"api_key"`
	APISecret         string `json:"api_secret"`
	IsActive          *bool  `json:"is_active"`
	MonitoringEnabled *bool  `json:"monitoring_enabled"`
	RateLimit         int    `json:"rate_limit"`
}

func (h *platformHandler) Create(c *gin.Context) {
	var req PlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPlatformType(req.PlatformType) {
		respondError(c, h.logger, apperr.Validation("unknown platform type %q", req.PlatformType))
		return
	}

	platform := &models.Platform{
		Name:              req.Name,
		PlatformType:      req.PlatformType,
		APIEndpoint:       req.APIEndpoint,
		APIKey:            req.APIKey,
		IsActive:          true,
		MonitoringEnabled: true,
		RateLimit:         req.RateLimit,
	}
	if req.IsActive != nil {
		platform.IsActive = *req.IsActive
	}
	if req.MonitoringEnabled != nil {
		platform.MonitoringEnabled = *req.MonitoringEnabled
	}
	if req.APISecret != "" {
		sealed, err := h.sealer.Seal(req.APISecret)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		platform.APISecretEnc = sealed
	}

	if err := h.platforms.Create(platform); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, platform)
}

func (h *platformHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	platform, err := h.platforms.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, platform)
}

func (h *platformHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	platforms, err := h.platforms.List(activeOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"platforms": platforms})
}

func (h *platformHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	platform, err := h.platforms.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req PlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform.Name = req.Name
	if req.APIEndpoint != "" {
		platform.APIEndpoint = req.APIEndpoint
	}
	if req.APIKey != "" {
		platform.APIKey = req.APIKey
	}
	if req.APISecret != "" {
		sealed, err := h.sealer.Seal(req.APISecret)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		platform.APISecretEnc = sealed
	}
	if req.IsActive != nil {
		platform.IsActive = *req.IsActive
	}
	if req.MonitoringEnabled != nil {
		platform.MonitoringEnabled = *req.MonitoringEnabled
	}
	if req.RateLimit > 0 {
		platform.RateLimit = req.RateLimit
	}
	platform.UpdatedAt = time.Now()

	if err := h.platforms.Update(platform); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, platform)
}

func (h *platformHandler) GetConnection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *platformHandler) ListConnections(c *gin.Context) {
	conns, err := h.connections.List()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h *platformHandler) Connect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Connect(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *platformHandler) Disconnect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Disconnect(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *platformHandler) ResetErrors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.ResetErrors(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// pathID parses the named path parameter as an int64, writing the 400 itself
// on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
