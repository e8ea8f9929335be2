package models

import (
	"time"
)

// Request lifecycle statuses. A record enters the log in auto_responded,
// pending_approval, or error; pending_approval is the only non-terminal
// state and may move to exactly one of the four terminal states.
const (
	StatusPendingApproval = "pending_approval"
	StatusAutoResponded   = "auto_responded"
	StatusApprovedGrok    = "approved_grok"
	StatusApprovedManual  = "approved_manual"
	StatusRejected        = "rejected"
	StatusError           = "error"
)

// Moderation decisions recorded on resolved requests.
const (
	DecisionGrok   = "grok"
	DecisionManual = "manual"
	DecisionReject = "reject"
)

// CommandAsk is the only command kind handled by the admission pipeline.
const CommandAsk = "ask"

// IsTerminalStatus reports whether a status ends the record's lifecycle.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusAutoResponded, StatusApprovedGrok, StatusApprovedManual, StatusRejected, StatusError:
		return true
	}
	return false
}

// GuildPolicy holds the per-guild admission configuration. Exactly one row
// per guild id, created lazily with defaults on first access, mutated only
// through the operator config API, never deleted.
type GuildPolicy struct {
	GuildID                string    `gorm:"primaryKey;size:32" json:"guild_id"`
	AutoApproveEnabled     bool      `json:"auto_approve_enabled"`
	AdminBypassAutoApprove bool      `json:"admin_bypass_auto_approve"`
	AskWindowSeconds       int       `json:"ask_window_seconds"`
	AskMaxPerWindow        int       `json:"ask_max_per_window"`
	DuplicateWindowSeconds int       `json:"duplicate_window_seconds"`
	UserDailyTokenLimit    int       `json:"user_daily_token_limit"`
	GuildDailyTokenLimit   int       `json:"guild_daily_token_limit"`
	SystemPrompt           string    `gorm:"type:text" json:"system_prompt"`
	Temperature            float64   `json:"temperature"`
	MaxCompletionTokens    int       `json:"max_completion_tokens"`
	MaxPromptChars         int       `json:"max_prompt_chars"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// RequestRecord is one row of the audit log: a single inbound ask and its
// outcome. Created once at pipeline entry; after that, at most one status
// transition. Immutable once terminal.
type RequestRecord struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	GuildID           string     `gorm:"size:32;not null;index:idx_requests_scope,priority:1" json:"guild_id"`
	ChannelID         string     `gorm:"size:32;not null" json:"channel_id"`
	UserID            string     `gorm:"size:32;not null;index:idx_requests_scope,priority:2" json:"user_id"`
	ExternalMessageID string     `gorm:"size:32" json:"external_message_id,omitempty"`
	CommandKind       string     `gorm:"size:20;not null" json:"command_kind"`
	UserContent       string     `gorm:"type:text;not null" json:"user_content"`
	ResponseContent   string     `gorm:"type:text" json:"response_content,omitempty"`
	PromptTokens      *int       `json:"prompt_tokens"`
	CompletionTokens  *int       `json:"completion_tokens"`
	TotalTokens       *int       `json:"total_tokens"`
	EstimatedCostUSD  *float64   `json:"estimated_cost_usd"`
	NeedsApproval     bool       `json:"needs_approval"`
	Status            string     `gorm:"size:32;not null;index" json:"status"`
	Decision          string     `gorm:"size:16" json:"decision,omitempty"`
	ApprovedBy        string     `gorm:"size:32" json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at"`
	ManualReply       string     `gorm:"type:text" json:"manual_reply,omitempty"`
	ErrorCode         string     `gorm:"size:64" json:"error_code,omitempty"`
	ErrorDetail       string     `gorm:"type:text" json:"error_detail,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	RespondedAt       *time.Time `json:"responded_at"`
}

// UserDailyUsage is a per-guild, per-user, per-UTC-day token counter.
// Rows appear on first increment and roll over naturally at day boundaries.
type UserDailyUsage struct {
	GuildID     string    `gorm:"primaryKey;size:32" json:"guild_id"`
	UserID      string    `gorm:"primaryKey;size:32" json:"user_id"`
	Day         string    `gorm:"primaryKey;size:10" json:"day"` // YYYY-MM-DD, UTC
	TokensUsed  int64     `json:"tokens_used"`
	LastUpdated time.Time `json:"last_updated"`
}

// GuildDailyUsage aggregates token usage per guild and UTC day. Incremented
// in the same transaction as the matching UserDailyUsage row, so the guild
// counter is always >= the sum of its users' counters for that day.
type GuildDailyUsage struct {
	GuildID     string    `gorm:"primaryKey;size:32" json:"guild_id"`
	Day         string    `gorm:"primaryKey;size:10" json:"day"`
	TokensUsed  int64     `json:"tokens_used"`
	LastUpdated time.Time `json:"last_updated"`
}

// AdminUser marks a (user, guild) pair with elevated privilege. Membership
// is idempotent: adding an existing pair is a no-op.
type AdminUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:32;not null;uniqueIndex:idx_admin_user_guild,priority:1" json:"user_id"`
	GuildID   string    `gorm:"size:32;not null;uniqueIndex:idx_admin_user_guild,priority:2" json:"guild_id"`
	Role      string    `gorm:"size:50;default:admin" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardUser is an operator account for the web dashboard.
type DashboardUser struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string     `gorm:"size:255" json:"-"` // bcrypt hash
	Role      string     `gorm:"size:50;default:admin" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName overrides
func (GuildPolicy) TableName() string     { return "guild_policies" }
func (RequestRecord) TableName() string   { return "request_log" }
func (UserDailyUsage) TableName() string  { return "user_daily_usage" }
func (GuildDailyUsage) TableName() string { return "guild_daily_usage" }
func (AdminUser) TableName() string       { return "admin_users" }
func (DashboardUser) TableName() string   { return "dashboard_users" }
