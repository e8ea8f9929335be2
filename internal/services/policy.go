package services

import (
	"errors"

	"github.com/promptgate/promptgate/internal/models"
	"gorm.io/gorm"
)

// Built-in policy defaults, applied when a guild is first seen.
const (
	defaultAskWindowSeconds       = 60
	defaultAskMaxPerWindow        = 5
	defaultDuplicateWindowSeconds = 60
	defaultUserDailyTokenLimit    = 20000
	defaultGuildDailyTokenLimit   = 200000
	defaultTemperature            = 0.5
	defaultMaxCompletionTokens    = 1024
	defaultMaxPromptChars         = 4000
)

// PolicyStore manages per-guild admission configuration. Policies are
// created lazily with defaults on first access and never deleted.
type PolicyStore struct {
	db                  *gorm.DB
	defaultSystemPrompt string
}

func NewPolicyStore(db *gorm.DB, defaultSystemPrompt string) *PolicyStore {
	return &PolicyStore{db: db, defaultSystemPrompt: defaultSystemPrompt}
}

// DefaultPolicy returns a fresh policy row populated with built-in defaults.
func (s *PolicyStore) DefaultPolicy(guildID string) *models.GuildPolicy {
	return &models.GuildPolicy{
		GuildID:                guildID,
		AutoApproveEnabled:     false,
		AdminBypassAutoApprove: true,
		AskWindowSeconds:       defaultAskWindowSeconds,
		AskMaxPerWindow:        defaultAskMaxPerWindow,
		DuplicateWindowSeconds: defaultDuplicateWindowSeconds,
		UserDailyTokenLimit:    defaultUserDailyTokenLimit,
		GuildDailyTokenLimit:   defaultGuildDailyTokenLimit,
		SystemPrompt:           s.defaultSystemPrompt,
		Temperature:            defaultTemperature,
		MaxCompletionTokens:    defaultMaxCompletionTokens,
		MaxPromptChars:         defaultMaxPromptChars,
	}
}

// Get loads a guild's policy, creating the row with defaults on first
// access. Exactly one row exists per guild id.
func (s *PolicyStore) Get(guildID string) (*models.GuildPolicy, error) {
	var policy models.GuildPolicy
	err := s.db.Where("guild_id = ?", guildID).First(&policy).Error
	if err == nil {
		return &policy, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := s.DefaultPolicy(guildID)
	if err := s.db.Create(fresh).Error; err != nil {
		// A concurrent first access may have created the row already.
		var existing models.GuildPolicy
		if lookupErr := s.db.Where("guild_id = ?", guildID).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return fresh, nil
}

// PolicyUpdate holds optional field updates; nil fields keep current values.
type PolicyUpdate struct {
	AutoApproveEnabled     *bool    `json:"auto_approve_enabled"`
	AdminBypassAutoApprove *bool    `json:"admin_bypass_auto_approve"`
	AskWindowSeconds       *int     `json:"ask_window_seconds" binding:"omitempty,min=1"`
	AskMaxPerWindow        *int     `json:"ask_max_per_window" binding:"omitempty,min=1"`
	DuplicateWindowSeconds *int     `json:"duplicate_window_seconds" binding:"omitempty,min=1"`
	UserDailyTokenLimit    *int     `json:"user_daily_token_limit" binding:"omitempty,min=0"`
	GuildDailyTokenLimit   *int     `json:"guild_daily_token_limit" binding:"omitempty,min=0"`
	SystemPrompt           *string  `json:"system_prompt"`
	Temperature            *float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
	MaxCompletionTokens    *int     `json:"max_completion_tokens" binding:"omitempty,min=1"`
	MaxPromptChars         *int     `json:"max_prompt_chars" binding:"omitempty,min=1"`
}

// Update applies the non-nil fields of upd to a guild's policy and returns
// the stored result.
func (s *PolicyStore) Update(guildID string, upd *PolicyUpdate) (*models.GuildPolicy, error) {
	policy, err := s.Get(guildID)
	if err != nil {
		return nil, err
	}

	if upd.AutoApproveEnabled != nil {
		policy.AutoApproveEnabled = *upd.AutoApproveEnabled
	}
	if upd.AdminBypassAutoApprove != nil {
		policy.AdminBypassAutoApprove = *upd.AdminBypassAutoApprove
	}
	if upd.AskWindowSeconds != nil {
		policy.AskWindowSeconds = *upd.AskWindowSeconds
	}
	if upd.AskMaxPerWindow != nil {
		policy.AskMaxPerWindow = *upd.AskMaxPerWindow
	}
	if upd.DuplicateWindowSeconds != nil {
		policy.DuplicateWindowSeconds = *upd.DuplicateWindowSeconds
	}
	if upd.UserDailyTokenLimit != nil {
		policy.UserDailyTokenLimit = *upd.UserDailyTokenLimit
	}
	if upd.GuildDailyTokenLimit != nil {
		policy.GuildDailyTokenLimit = *upd.GuildDailyTokenLimit
	}
	if upd.SystemPrompt != nil {
		policy.SystemPrompt = *upd.SystemPrompt
	}
	if upd.Temperature != nil {
		policy.Temperature = *upd.Temperature
	}
	if upd.MaxCompletionTokens != nil {
		policy.MaxCompletionTokens = *upd.MaxCompletionTokens
	}
	if upd.MaxPromptChars != nil {
		policy.MaxPromptChars = *upd.MaxPromptChars
	}

	if err := s.db.Save(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

// ListGuilds returns every guild id with a stored policy.
func (s *PolicyStore) ListGuilds() ([]string, error) {
	var ids []string
	err := s.db.Model(&models.GuildPolicy{}).
		Order("guild_id ASC").
		Pluck("guild_id", &ids).Error
	return ids, err
}
