package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"
)

type PatternHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Update(c *gin.Context)
	Test(c *gin.Context)

	CreateCategory(c *gin.Context)
	ListCategories(c *gin.Context)
	AttachCategory(c *gin.Context)
}

type patternHandler struct {
	patterns   repository.PatternRepository
	detections service.DetectionService
	logger     *zap.Logger
}

func NewPatternHandler(patterns repository.PatternRepository, detections service.DetectionService, logger *zap.Logger) PatternHandler {
	return &patternHandler{patterns: patterns, detections: detections, logger: logger}
}

type PatternRequest struct {
	Name                string  `json:"name" binding:"required"`
	PatternType         string  `json:"pattern_type" binding:"required"`
	PatternData         string  `json:"pattern_data" binding:"required"`
	Description         string  `json:"description"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	IsActive            *bool   `json:"is_active"`
	Priority            int     `json:"priority"`
}

func (h *patternHandler) Create(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		respondError(c, h.logger, apperr.Validation("confidence_threshold must be in [0,1]"))
		return
	}

	pattern := &models.DetectionPattern{
		Name:                req.Name,
		PatternType:         req.PatternType,
		PatternData:         req.PatternData,
		Description:         req.Description,
		ConfidenceThreshold: req.ConfidenceThreshold,
		IsActive:            true,
		Priority:            req.Priority,
	}
	if req.IsActive != nil {
		pattern.IsActive = *req.IsActive
	}

	if err := h.patterns.Create(pattern); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pattern)
}

func (h *patternHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pattern, err := h.patterns.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pattern)
}

func (h *patternHandler) List(c *gin.Context) {
	var (
		patterns []*models.DetectionPattern
		err      error
	)
	if c.Query("active") == "true" {
		patterns, err = h.patterns.ListActive()
	} else {
		patterns, err = h.patterns.List()
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

func (h *patternHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pattern, err := h.patterns.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		respondError(c, h.logger, apperr.Validation("confidence_threshold must be in [0,1]"))
		return
	}

	pattern.Name = req.Name
	pattern.PatternType = req.PatternType
	pattern.PatternData = req.PatternData
	pattern.Description = req.Description
	pattern.ConfidenceThreshold = req.ConfidenceThreshold
	pattern.Priority = req.Priority
	if req.IsActive != nil {
		pattern.IsActive = *req.IsActive
	}
	pattern.UpdatedAt = time.Now()

	if err := h.patterns.Update(pattern); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pattern)
}

type PatternTestRequest struct {
	Content string `json:"content" binding:"required"`
}

// Test evaluates arbitrary content against a stored pattern without
// persisting anything.
func (h *patternHandler) Test(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PatternTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pattern, result, err := h.detections.Evaluate(id, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pattern_id":        pattern.ID,
		"pattern_name":      pattern.Name,
		"confidence":        result.Confidence,
		"matched":           result.Matched,
		"detected_keywords": result.DetectedKeywords,
		"threshold":         pattern.Threshold(),
	})
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	RiskLevel   string `json:"risk_level" binding:"required"`
}

func (h *patternHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.DrugCategory{
		Name:        req.Name,
		Description: req.Description,
		RiskLevel:   req.RiskLevel,
		IsActive:    true,
	}
	if err := h.patterns.CreateCategory(category); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *patternHandler) ListCategories(c *gin.Context) {
	categories, err := h.patterns.ListCategories()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *patternHandler) AttachCategory(c *gin.Context) {
	patternID, ok := pathID(c, "id")
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category_id")
	if !ok {
		return
	}
	if err := h.patterns.AttachCategory(patternID, categoryID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category attached"})
}
