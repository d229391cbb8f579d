package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roadchal/internal/observability"
	"roadchal/internal/service"
	"roadchal/internal/whatsapp"
)

// WhatsAppHandler handles the Twilio and Meta WhatsApp webhooks.
type WhatsAppHandler struct {
	chatbot     *service.Chatbot
	bot         *service.WhatsAppBot
	verifyToken string
}

// NewWhatsAppHandler creates a new WhatsAppHandler.
func NewWhatsAppHandler(chatbot *service.Chatbot, bot *service.WhatsAppBot, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{
		chatbot:     chatbot,
		bot:         bot,
		verifyToken: verifyToken,
	}
}

// Twilio handles POST /api/whatsapp
func (h *WhatsAppHandler) Twilio(c *gin.Context) {
	body := c.PostForm("Body")
	if strings.TrimSpace(body) == "" {
		badRequest(c, "Body is required")
		return
	}

	observability.ChatMessagesTotal.WithLabelValues("twilio").Inc()
	twiml, err := whatsapp.TwiML(h.chatbot.Reply(body))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/xml", twiml)
}

// Verify handles GET /api/whatsapp/webhook
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		c.Status(http.StatusForbidden)
		return
	}

	c.String(http.StatusOK, challenge)
}

// Webhook handles POST /api/whatsapp/webhook
func (h *WhatsAppHandler) Webhook(c *gin.Context) {
	var payload whatsapp.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Object == "" {
		c.Status(http.StatusNotFound)
		return
	}

	if msg, ok := payload.FirstMessage(); ok {
		// Replies are sent even if Meta drops the connection.
		h.bot.Handle(context.WithoutCancel(c.Request.Context()), msg)
	}

	c.Status(http.StatusOK)
}
