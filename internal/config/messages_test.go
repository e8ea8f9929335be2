package config

import (
	"strings"
	"testing"
)

func TestConfig_Message(t *testing.T) {
	cfg := DefaultConfig()

	if msg := cfg.Message("duplicate"); msg == "" {
		t.Error("built-in message should not be empty")
	}

	// Unknown keys fall back to the generic error text.
	if got := cfg.Message("no_such_key"); got != defaultMessages["unknown_error"] {
		t.Errorf("Message(unknown) = %q, expected unknown_error fallback", got)
	}
}

func TestConfig_MessageOverride(t *testing.T) {
	cfg := DefaultConfig()

	cfg.SetMessages(map[string]string{"duplicate": "asked and answered"})

	if got := cfg.Message("duplicate"); got != "asked and answered" {
		t.Errorf("Message(duplicate) = %q, expected the override", got)
	}
	// Other keys keep the built-in text.
	if got := cfg.Message("gibberish"); got != defaultMessages["gibberish"] {
		t.Errorf("Message(gibberish) = %q, expected the built-in text", got)
	}
}

func TestConfig_MessageWithMax(t *testing.T) {
	cfg := DefaultConfig()

	got := cfg.MessageWithMax("too_long", 4000)
	if strings.Contains(got, "{max_chars}") {
		t.Errorf("placeholder not replaced: %q", got)
	}
	if !strings.Contains(got, "4000") {
		t.Errorf("bound not interpolated: %q", got)
	}
}

func TestConfig_FormatReply(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.FormatReply("plain answer"); got != "plain answer" {
		t.Errorf("FormatReply without affixes = %q", got)
	}

	cfg.Bot.ReplyPrefix = ">>"
	cfg.Bot.ReplySuffix = "(bot)"
	if got := cfg.FormatReply("plain answer"); got != ">> plain answer (bot)" {
		t.Errorf("FormatReply with affixes = %q", got)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GROK_API_KEY", "env-key")
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("SERVER_PORT", "9090")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.AI.APIKey != "env-key" {
		t.Errorf("AI.APIKey = %q, expected env value", cfg.AI.APIKey)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("AI.Provider = %q, expected anthropic", cfg.AI.Provider)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected 9090", cfg.Server.Port)
	}
}
