package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Chatbot replies to free text with canned keyword answers.
type Chatbot struct {
	policy *bluemonday.Policy
}

// NewChatbot creates a new Chatbot.
func NewChatbot() *Chatbot {
	return &Chatbot{policy: bluemonday.StrictPolicy()}
}

// Reply answers a message. Keywords are matched as substrings, first match wins.
func (b *Chatbot) Reply(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! I am your Roadचल assistant. How can I help you today?"
	case strings.Contains(lower, "metro"):
		return "The Pune Metro is a great way to travel! Which station are you looking for?"
	case strings.Contains(lower, "fare"):
		return "Metro fares are affordable, starting from ₹10."
	default:
		return fmt.Sprintf("You said: '%s'. I'm still learning, but I'm here to help!", b.stripTags(message))
	}
}

// stripTags removes markup. The policy entity-encodes its output, so the text
// is decoded again to echo plain characters unchanged.
func (b *Chatbot) stripTags(message string) string {
	return html.UnescapeString(b.policy.Sanitize(message))
}
