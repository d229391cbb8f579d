package tests

import (
	"context"
	"strings"
	"testing"

	"roadchal/internal/service"
	"roadchal/internal/whatsapp"
)

func inbound(from, body string) whatsapp.InboundMessage {
	msg := whatsapp.InboundMessage{From: from, Type: "text"}
	msg.Text = &struct {
		Body string `json:"body"`
	}{Body: body}
	return msg
}

// ──────────────────────────────────────────────
// 1. COMMANDS
// ──────────────────────────────────────────────

func TestWhatsAppBot_Commands(t *testing.T) {
	bot := service.NewWhatsAppBot(NewMockMessenger(), nil, "https://track.example.com", nil)

	testCases := []struct {
		text     string
		contains string
	}{
		{"hi", "Hello there!"},
		{" HELLO ", "Hello there!"},
		{"help", "Available commands:"},
		{"status", "I am online and ready to help you!"},
		{"book", "https://track.example.com?phone=919000000000"},
		{"what?", "I'm sorry, I didn't quite catch that."},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			reply := bot.Reply("919000000000", tc.text)
			if !strings.Contains(reply, tc.contains) {
				t.Errorf("expected reply to contain %q, got %q", tc.contains, reply)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. HANDLING
// ──────────────────────────────────────────────

func TestWhatsAppBot_BookStartsTracking(t *testing.T) {
	messenger := NewMockMessenger()
	tracker := &MockTracker{}
	bot := service.NewWhatsAppBot(messenger, tracker, "https://track.example.com", nil)

	bot.Handle(context.Background(), inbound("919000000000", "Book"))

	sent := messenger.Sent()
	if len(sent) != 1 || sent[0].To != "919000000000" {
		t.Fatalf("expected one reply to the sender, got %+v", sent)
	}
	if !strings.HasPrefix(sent[0].Text, "Booking initiated!") {
		t.Errorf("unexpected reply %q", sent[0].Text)
	}
	if len(tracker.Phones) != 1 || tracker.Phones[0] != "919000000000" {
		t.Errorf("expected tracking to start, got %v", tracker.Phones)
	}
}

func TestWhatsAppBot_OtherCommandsDoNotTrack(t *testing.T) {
	messenger := NewMockMessenger()
	tracker := &MockTracker{}
	bot := service.NewWhatsAppBot(messenger, tracker, "https://track.example.com", nil)

	bot.Handle(context.Background(), inbound("1", "status"))
	bot.Handle(context.Background(), inbound("1", "booking please"))

	if len(tracker.Phones) != 0 {
		t.Errorf("expected no tracking, got %v", tracker.Phones)
	}
	if len(messenger.Sent()) != 2 {
		t.Errorf("expected two replies, got %d", len(messenger.Sent()))
	}
}

func TestWhatsAppBot_SendFailureStillTracks(t *testing.T) {
	messenger := NewMockMessenger()
	messenger.SendError = ErrMockTimeout
	tracker := &MockTracker{}
	bot := service.NewWhatsAppBot(messenger, tracker, "u", nil)

	bot.Handle(context.Background(), inbound("1", "book"))

	if len(tracker.Phones) != 1 {
		t.Errorf("expected tracking despite send failure, got %v", tracker.Phones)
	}
}
