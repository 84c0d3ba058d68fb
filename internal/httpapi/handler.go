package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/logger"
	"digitaltwin/internal/retriever"
)

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	twin Twin
}

func NewChatHandler(twin Twin) *ChatHandler {
	return &ChatHandler{twin: twin}
}

type chatRequest struct {
	Question string `json:"question"`
}

type metricsJSON struct {
	RetrievalMs  int64 `json:"retrieval_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}

type metadataJSON struct {
	Mode    retriever.Mode     `json:"mode"`
	Sources []retriever.Source `json:"sources"`
	Metrics metricsJSON        `json:"metrics"`
	Cached  bool               `json:"cached"`
}

type chatResponse struct {
	Success  bool         `json:"success"`
	Response string       `json:"response"`
	Metadata metadataJSON `json:"metadata"`
}

// Usage documents the POST body.
func (h *ChatHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": `POST a JSON body {"question": "..."} to this endpoint to ask the digital twin.`,
		"mode":    h.twin.Mode(),
	})
}

// Chat answers one question.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "question is required"})
		return
	}

	a, err := h.twin.Ask(c.Request.Context(), req.Question)
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "question is required"})
		return
	case err != nil:
		logger.Error("chat request failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
		return
	}

	sources := a.Sources
	if sources == nil {
		sources = []retriever.Source{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Success:  a.Err == nil,
		Response: a.Text,
		Metadata: metadataJSON{
			Mode:    a.Mode,
			Sources: sources,
			Metrics: metricsJSON{
				RetrievalMs:  a.Metrics.Retrieval.Milliseconds(),
				GenerationMs: a.Metrics.Generation.Milliseconds(),
				TotalMs:      a.Metrics.Total.Milliseconds(),
			},
			Cached: a.Cached,
		},
	})
}

// Health reports the lifecycle state and retrieval mode.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.twin.State().String(),
		"mode":  h.twin.Mode(),
	})
}
