package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roadchal/internal/observability"
	"roadchal/internal/service"
)

// ChatHandler handles HTTP requests for the keyword assistant and the booking agent.
type ChatHandler struct {
	chatbot *service.Chatbot
	agent   *service.Agent
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatbot *service.Chatbot, agent *service.Agent) *ChatHandler {
	return &ChatHandler{
		chatbot: chatbot,
		agent:   agent,
	}
}

// ChatRequest is the HTTP request body for the keyword assistant.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the HTTP response of the keyword assistant.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// AgentMessageRequest is the HTTP request body for one agent turn.
type AgentMessageRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "message required")
		return
	}

	observability.ChatMessagesTotal.WithLabelValues("web").Inc()
	respondJSON(c, http.StatusOK, ChatResponse{Reply: h.chatbot.Reply(req.Message)})
}

// AgentMessage handles POST /api/agent/messages
func (h *ChatHandler) AgentMessage(c *gin.Context) {
	var req AgentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	reply, err := h.agent.Reply(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, reply)
}

// GetSession handles GET /api/agent/sessions/:user_id
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.agent.Session(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, session)
}

// ResetSession handles DELETE /api/agent/sessions/:user_id
func (h *ChatHandler) ResetSession(c *gin.Context) {
	if err := h.agent.Reset(c.Request.Context(), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
