package services

import (
	"testing"
)

func TestPolicyStore_GetCreatesDefaults(t *testing.T) {
	store := NewPolicyStore(newTestDB(t), "you are a test assistant")

	policy, err := store.Get("g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if policy.AutoApproveEnabled {
		t.Error("AutoApproveEnabled should default to false")
	}
	if !policy.AdminBypassAutoApprove {
		t.Error("AdminBypassAutoApprove should default to true")
	}
	if policy.AskWindowSeconds != defaultAskWindowSeconds {
		t.Errorf("AskWindowSeconds = %d, expected %d", policy.AskWindowSeconds, defaultAskWindowSeconds)
	}
	if policy.AskMaxPerWindow != defaultAskMaxPerWindow {
		t.Errorf("AskMaxPerWindow = %d, expected %d", policy.AskMaxPerWindow, defaultAskMaxPerWindow)
	}
	if policy.UserDailyTokenLimit != defaultUserDailyTokenLimit {
		t.Errorf("UserDailyTokenLimit = %d, expected %d", policy.UserDailyTokenLimit, defaultUserDailyTokenLimit)
	}
	if policy.GuildDailyTokenLimit != defaultGuildDailyTokenLimit {
		t.Errorf("GuildDailyTokenLimit = %d, expected %d", policy.GuildDailyTokenLimit, defaultGuildDailyTokenLimit)
	}
	if policy.Temperature != defaultTemperature {
		t.Errorf("Temperature = %f, expected %f", policy.Temperature, defaultTemperature)
	}
	if policy.MaxPromptChars != defaultMaxPromptChars {
		t.Errorf("MaxPromptChars = %d, expected %d", policy.MaxPromptChars, defaultMaxPromptChars)
	}
	if policy.SystemPrompt != "you are a test assistant" {
		t.Errorf("SystemPrompt = %q", policy.SystemPrompt)
	}
}

func TestPolicyStore_GetIsIdempotent(t *testing.T) {
	store := NewPolicyStore(newTestDB(t), "")

	first, err := store.Get("g1")
	if err != nil {
		t.Fatalf("first Get() error = %v", err)
	}
	second, err := store.Get("g1")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if first.GuildID != second.GuildID {
		t.Error("both reads should return the same row")
	}

	guilds, _ := store.ListGuilds()
	if len(guilds) != 1 {
		t.Errorf("ListGuilds() returned %d guilds, expected 1", len(guilds))
	}
}

func TestPolicyStore_Update(t *testing.T) {
	store := NewPolicyStore(newTestDB(t), "")

	enabled := true
	limit := 3
	prompt := "be nice"
	updated, err := store.Update("g1", &PolicyUpdate{
		AutoApproveEnabled: &enabled,
		AskMaxPerWindow:    &limit,
		SystemPrompt:       &prompt,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !updated.AutoApproveEnabled {
		t.Error("AutoApproveEnabled should be true after update")
	}
	if updated.AskMaxPerWindow != 3 {
		t.Errorf("AskMaxPerWindow = %d, expected 3", updated.AskMaxPerWindow)
	}
	if updated.SystemPrompt != "be nice" {
		t.Errorf("SystemPrompt = %q", updated.SystemPrompt)
	}

	// Untouched fields keep their defaults.
	if updated.AskWindowSeconds != defaultAskWindowSeconds {
		t.Errorf("AskWindowSeconds = %d, expected default %d", updated.AskWindowSeconds, defaultAskWindowSeconds)
	}

	// Changes persisted.
	reloaded, _ := store.Get("g1")
	if !reloaded.AutoApproveEnabled || reloaded.AskMaxPerWindow != 3 {
		t.Errorf("reloaded policy = %+v, update not persisted", reloaded)
	}
}

func TestPolicyStore_ListGuilds(t *testing.T) {
	store := NewPolicyStore(newTestDB(t), "")

	for _, id := range []string{"g2", "g1", "g3"} {
		if _, err := store.Get(id); err != nil {
			t.Fatalf("Get(%q) error = %v", id, err)
		}
	}

	guilds, err := store.ListGuilds()
	if err != nil {
		t.Fatalf("ListGuilds() error = %v", err)
	}
	if len(guilds) != 3 {
		t.Fatalf("ListGuilds() returned %d guilds, expected 3", len(guilds))
	}
	if guilds[0] != "g1" || guilds[2] != "g3" {
		t.Errorf("ListGuilds() = %v, expected sorted ids", guilds)
	}
}
