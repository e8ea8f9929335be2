package config

import (
	"strconv"
	"strings"
)

const defaultSystemPrompt = "You are a blunt but helpful community AI assistant. " +
	"Always answer the user's question directly and concisely. Lead with the " +
	"helpful answer, then optionally add one short dry comment. Never use slurs, " +
	"protected-class insults, explicit sexual content, or graphic violence. If " +
	"the prompt is unclear or spammy, say so briefly and tell the user what to " +
	"do instead."

// defaultMessages is the built-in canned reply catalog. Entries can be
// overridden per deployment through the YAML config or the settings API.
var defaultMessages = map[string]string{
	"empty_input":      "Try sending an actual question instead of blank air.",
	"too_short":        "That barely qualifies as a question. Add some words.",
	"trivial_input":    "Wow, groundbreaking. Try a real question.",
	"gibberish":        "That looks like keyboard smash. Try again.",
	"too_long":         "Message is too long. Trim it under {max_chars} characters.",
	"duplicate":        "You literally just asked that. Wait a bit.",
	"rate_limit_chat":  "Cool it. You hit the spam limit. Try again later.",
	"chat_budget_user": "Your daily chat budget is toast. Ask again tomorrow.",
	"chat_budget_guild": "This guild used up the chat budget for today. " +
		"Cool your jets.",
	"pending_approval_chat": "Your request is waiting for an admin to approve.",
	"ai_error_chat":         "The AI had a meltdown. Try again later.",
	"manual_reply_default":  "Admin reply.",
	"rejection_default":     "Request rejected by an admin.",
	"invalid_input":         "Invalid input.",
	"unknown_error":         "Something went wrong. Try again.",
}

// Message returns the canned message for key, falling back to the built-in
// catalog and then to the unknown_error text.
func (c *Config) Message(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if msg, ok := c.Bot.Messages[key]; ok {
		return msg
	}
	if msg, ok := defaultMessages[key]; ok {
		return msg
	}
	return defaultMessages["unknown_error"]
}

// MessageWithMax returns a message with its {max_chars} placeholder filled.
func (c *Config) MessageWithMax(key string, maxChars int) string {
	return strings.ReplaceAll(c.Message(key), "{max_chars}", strconv.Itoa(maxChars))
}

// SetMessages overwrites catalog entries with the given values.
func (c *Config) SetMessages(updates map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Bot.Messages == nil {
		c.Bot.Messages = map[string]string{}
	}
	for key, text := range updates {
		c.Bot.Messages[key] = text
	}
}

// AllMessages returns a copy of the effective message catalog.
func (c *Config) AllMessages() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.Bot.Messages))
	for key, text := range c.Bot.Messages {
		out[key] = text
	}
	return out
}

// FormatReply wraps content with the configured reply prefix and suffix.
// Applied to every outbound reply, never to stored content.
func (c *Config) FormatReply(content string) string {
	c.mu.RLock()
	prefix := c.Bot.ReplyPrefix
	suffix := c.Bot.ReplySuffix
	c.mu.RUnlock()

	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, content)
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, " ")
}

// SystemPrompt returns the configured default system prompt.
func (c *Config) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Bot.SystemPrompt
}
