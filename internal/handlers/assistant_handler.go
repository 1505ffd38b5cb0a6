package handler

import (
	"encoding/json"
	"net/http"

	"lumen-finance-backend/internal/services/assistant"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AssistantHandler struct {
	assistant *assistant.Assistant
	logger    *logrus.Logger
}

func NewAssistantHandler(a *assistant.Assistant, logger *logrus.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: a, logger: logger}
}

// Tools lists the available tool schemas.
func (h *AssistantHandler) Tools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "tools": h.assistant.Tools()})
}

type executeToolRequest struct {
	Tool string          `json:"tool" binding:"required"`
	Args json.RawMessage `json:"args"`
}

// Execute runs one tool directly, bypassing the chat loop.
func (h *AssistantHandler) Execute(c *gin.Context) {
	var req executeToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "tool name is required")
		return
	}

	result, err := h.assistant.ExecuteTool(c.Request.Context(), req.Tool, req.Args)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": json.RawMessage(result)})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat answers a natural-language question about the user's spending.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.assistant.Chat(c.Request.Context(), req.Message)
	if err != nil {
		h.logger.WithError(err).Error("assistant chat failed")
		fail(c, http.StatusBadGateway, "assistant is unavailable, check LLM status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": result})
}

// LLMStatus reports which LLM backends are reachable.
func (h *AssistantHandler) LLMStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": h.assistant.Status(c.Request.Context())})
}
