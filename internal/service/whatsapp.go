package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"roadchal/internal/observability"
	"roadchal/internal/whatsapp"
)

const whatsAppHelp = "Available commands:\n- hi/hello: Get a greeting\n- help: Show this menu\n- status: Check if I'm online\n- book: Start a mock booking"

// Tracker starts the live ride feed for a phone number.
type Tracker interface {
	StartTracking(phone string)
}

// WhatsAppBot answers text commands received through the WhatsApp webhook.
type WhatsAppBot struct {
	messenger       whatsapp.Messenger
	tracker         Tracker
	trackingPageURL string
	logger          *zap.Logger
}

// NewWhatsAppBot creates a new WhatsAppBot.
func NewWhatsAppBot(messenger whatsapp.Messenger, tracker Tracker, trackingPageURL string, logger *zap.Logger) *WhatsAppBot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppBot{
		messenger:       messenger,
		tracker:         tracker,
		trackingPageURL: trackingPageURL,
		logger:          logger,
	}
}

// Reply returns the answer to a command. It has no side effects.
func (b *WhatsAppBot) Reply(from, text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "hi", "hello":
		return "Hello there!"
	case "help":
		return whatsAppHelp
	case "status":
		return "I am online and ready to help you!"
	case "book":
		return fmt.Sprintf("Booking initiated! 🚗\n\nTrack your ride live here: %s?phone=%s", b.trackingPageURL, from)
	default:
		return "I'm sorry, I didn't quite catch that."
	}
}

// Handle answers an inbound message and starts tracking for bookings.
// Send failures are logged and not returned.
func (b *WhatsAppBot) Handle(ctx context.Context, msg whatsapp.InboundMessage) {
	observability.ChatMessagesTotal.WithLabelValues("whatsapp").Inc()

	text := msg.Body()
	reply := b.Reply(msg.From, text)

	if err := b.messenger.SendText(ctx, msg.From, reply); err != nil {
		b.logger.Warn("failed to send whatsapp reply", zap.String("to", msg.From), zap.Error(err))
	}

	if strings.ToLower(strings.TrimSpace(text)) == "book" && b.tracker != nil {
		b.tracker.StartTracking(msg.From)
	}
}
