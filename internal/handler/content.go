package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/repository"
)

type ContentHandler interface {
	Get(c *gin.Context)
	ListBySession(c *gin.Context)
	MarkSuspicious(c *gin.Context)
	MarkClean(c *gin.Context)
	MarkProcessed(c *gin.Context)
}

type contentHandler struct {
	content repository.ContentRepository
	logger  *zap.Logger
}

func NewContentHandler(content repository.ContentRepository, logger *zap.Logger) ContentHandler {
	return &contentHandler{content: content, logger: logger}
}

func (h *contentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.content.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *contentHandler) ListBySession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.content.ListBySession(sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": items})
}

type SuspiciousRequest struct {
	Confidence float64 `json:"confidence" binding:"required"`
	Keywords   string  `json:"keywords"`
}

// MarkSuspicious lets an analyst flag content the patterns missed.
func (h *contentHandler) MarkSuspicious(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SuspiciousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := h.content.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	content.MarkSuspicious(req.Confidence, req.Keywords)
	if err := h.content.UpdateFlags(content); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// MarkClean clears a suspicious flag after review.
func (h *contentHandler) MarkClean(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.content.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	content.MarkClean()
	if err := h.content.UpdateFlags(content); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// MarkProcessed closes out content handled outside the ingest loop.
func (h *contentHandler) MarkProcessed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.content.GetByID(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	content.MarkProcessed()
	if err := h.content.UpdateFlags(content); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, content)
}
