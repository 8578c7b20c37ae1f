package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/policy"
	"backend/internal/repository"
	"backend/internal/service"
)

type DetectionHandler interface {
	Get(c *gin.Context)
	List(c *gin.Context)
	Assign(c *gin.Context)
	Review(c *gin.Context)
	BulkReview(c *gin.Context)
	Escalate(c *gin.Context)
	FalsePositive(c *gin.Context)
	Resolve(c *gin.Context)
}

type detectionHandler struct {
	detections service.DetectionService
	logger     *zap.Logger
}

func NewDetectionHandler(detections service.DetectionService, logger *zap.Logger) DetectionHandler {
	return &detectionHandler{detections: detections, logger: logger}
}

// requester reconstructs the acting user from the auth context. Policy
// decisions only need the ID and role.
func requester(c *gin.Context) *models.User {
	return &models.User{
		ID:   c.GetInt64("user_id"),
		Role: c.GetString("role"),
	}
}

func (h *detectionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detection, err := h.detections.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !policy.CanViewDetection(requester(c), detection) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	c.JSON(http.StatusOK, detection)
}

func (h *detectionHandler) List(c *gin.Context) {
	user := requester(c)

	filter := repository.DetectionFilter{
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
	}
	if id, err := parseQueryID(c, "platform_id"); err == nil {
		filter.PlatformID = id
	}
	if id, err := parseQueryID(c, "assigned_to"); err == nil {
		filter.AssignedTo = id
	}

	detections, err := h.detections.List(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	visible := detections[:0]
	for _, d := range detections {
		if policy.CanViewDetection(user, d) {
			visible = append(visible, d)
		}
	}
	c.JSON(http.StatusOK, gin.H{"detections": visible})
}

type AssignRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *detectionHandler) Assign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !policy.CanAssign(requester(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detection, err := h.detections.Assign(id, req.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}

type ReviewRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *detectionHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := requester(c)
	if !policy.CanReview(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detection, err := h.detections.Review(id, user.ID, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}

type BulkReviewRequest struct {
	IDs    []int64 `json:"ids" binding:"required"`
	Status string  `json:"status" binding:"required"`
}

// BulkReview applies one review outcome to many detections. Failures are
// collected per ID; the good ones still go through.
func (h *detectionHandler) BulkReview(c *gin.Context) {
	user := requester(c)
	if !policy.CanReview(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	var req BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewed := make([]int64, 0, len(req.IDs))
	failed := map[int64]string{}
	for _, id := range req.IDs {
		if _, err := h.detections.Review(id, user.ID, req.Status); err != nil {
			failed[id] = err.Error()
			continue
		}
		reviewed = append(reviewed, id)
	}
	c.JSON(http.StatusOK, gin.H{"reviewed": reviewed, "failed": failed})
}

func (h *detectionHandler) Escalate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := requester(c)
	if !policy.CanEscalate(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	detection, err := h.detections.Escalate(id, user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}

func (h *detectionHandler) FalsePositive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := requester(c)
	if !policy.CanReview(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	detection, err := h.detections.MarkFalsePositive(id, user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}

func (h *detectionHandler) Resolve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := requester(c)
	if !policy.CanEscalate(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	detection, err := h.detections.Resolve(id, user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}
