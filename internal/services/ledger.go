package services

import (
	"errors"
	"sync"
	"time"

	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger owns the audit log and the daily token counters. All storage
// mutation for requests and usage goes through it; the pipeline and the
// moderation queue never touch the database directly.
type Ledger struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// todayUTC returns the current UTC calendar day as a counter key.
func todayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}

// AdmissionLock returns the mutex serializing the check-then-record section
// for one guild+user pair, so two concurrent identical requests observe each
// other's committed records. Callers must not hold it across gateway calls.
func (l *Ledger) AdmissionLock(guildID, userID string) *sync.Mutex {
	key := guildID + "\x00" + userID
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}

// UsageSnapshot is today's token consumption for one user and their guild.
type UsageSnapshot struct {
	UserTokens  int64 `json:"user_tokens"`
	GuildTokens int64 `json:"guild_tokens"`
}

// GetUsage reads today's counters. Missing rows read as zero and are never
// created by a read. userID may be empty to read only the guild counter.
func (l *Ledger) GetUsage(guildID, userID string) (*UsageSnapshot, error) {
	return l.usageForDay(guildID, userID, todayUTC())
}

func (l *Ledger) usageForDay(guildID, userID, day string) (*UsageSnapshot, error) {
	snap := &UsageSnapshot{}

	if userID != "" {
		var user models.UserDailyUsage
		err := l.db.Where("guild_id = ? AND user_id = ? AND day = ?", guildID, userID, day).
			First(&user).Error
		if err == nil {
			snap.UserTokens = user.TokensUsed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var guild models.GuildDailyUsage
	err := l.db.Where("guild_id = ? AND day = ?", guildID, day).First(&guild).Error
	if err == nil {
		snap.GuildTokens = guild.TokensUsed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return snap, nil
}

// IncrementChatUsage adds tokens to both today's per-user and per-guild
// counters in a single transaction. Rows are created on first write.
func (l *Ledger) IncrementChatUsage(guildID, userID string, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	day := todayUTC()
	now := time.Now().UTC()

	return l.db.Transaction(func(tx *gorm.DB) error {
		userRow := models.UserDailyUsage{
			GuildID: guildID, UserID: userID, Day: day,
			TokensUsed: tokens, LastUpdated: now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}, {Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"tokens_used":  gorm.Expr("tokens_used + ?", tokens),
				"last_updated": now,
			}),
		}).Create(&userRow).Error; err != nil {
			return err
		}

		guildRow := models.GuildDailyUsage{
			GuildID: guildID, Day: day,
			TokensUsed: tokens, LastUpdated: now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"tokens_used":  gorm.Expr("tokens_used + ?", tokens),
				"last_updated": now,
			}),
		}).Create(&guildRow).Error
	})
}

// CountRecent counts non-error audit records for a guild+user+kind within
// the trailing window. Sliding window, not a fixed bucket.
func (l *Ledger) CountRecent(guildID, userID, kind string, windowSeconds int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowSeconds) * time.Second)
	var count int64
	err := l.db.Model(&models.RequestRecord{}).
		Where("guild_id = ? AND user_id = ? AND command_kind = ? AND created_at >= ? AND status <> ?",
			guildID, userID, kind, cutoff, models.StatusError).
		Count(&count).Error
	return count, err
}

// HasRecentDuplicate reports whether the same guild+user submitted exactly
// this content within the window. Exact string match.
func (l *Ledger) HasRecentDuplicate(guildID, userID, content string, windowSeconds int) (bool, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowSeconds) * time.Second)
	var count int64
	err := l.db.Model(&models.RequestRecord{}).
		Where("guild_id = ? AND user_id = ? AND user_content = ? AND created_at >= ?",
			guildID, userID, content, cutoff).
		Count(&count).Error
	return count > 0, err
}

// RecordRequest appends a new audit record in its initial status and fills
// in the generated id. User content is stored verbatim.
func (l *Ledger) RecordRequest(rec *models.RequestRecord) error {
	if rec.CommandKind == "" {
		rec.CommandKind = models.CommandAsk
	}
	if models.IsTerminalStatus(rec.Status) && rec.RespondedAt == nil {
		now := time.Now().UTC()
		rec.RespondedAt = &now
	}
	return l.db.Create(rec).Error
}

// StatusUpdate carries the fields of a single request transition. Nil/empty
// fields are left untouched on the record.
type StatusUpdate struct {
	Status           string
	Decision         string
	ResponseContent  string
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	EstimatedCostUSD *float64
	ApprovedBy       string
	ManualReply      string
	ErrorCode        string
	ErrorDetail      string
}

// UpdateRequestStatus transitions a record to a new status. Terminal records
// reject any further transition with a conflict error; responded_at is set
// the first time the record enters a terminal status and never rewritten.
func (l *Ledger) UpdateRequestStatus(id uint, upd StatusUpdate) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var rec models.RequestRecord
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("request record not found")
			}
			return err
		}
		if models.IsTerminalStatus(rec.Status) {
			return response.NewConflict("request already resolved")
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": upd.Status}
		if upd.Decision != "" {
			updates["decision"] = upd.Decision
		}
		if upd.ResponseContent != "" {
			updates["response_content"] = upd.ResponseContent
		}
		if upd.PromptTokens != nil {
			updates["prompt_tokens"] = *upd.PromptTokens
		}
		if upd.CompletionTokens != nil {
			updates["completion_tokens"] = *upd.CompletionTokens
		}
		if upd.TotalTokens != nil {
			updates["total_tokens"] = *upd.TotalTokens
		}
		if upd.EstimatedCostUSD != nil {
			updates["estimated_cost_usd"] = *upd.EstimatedCostUSD
		}
		if upd.ApprovedBy != "" {
			updates["approved_by"] = upd.ApprovedBy
			updates["approved_at"] = now
		}
		if upd.ManualReply != "" {
			updates["manual_reply"] = upd.ManualReply
		}
		if upd.ErrorCode != "" {
			updates["error_code"] = upd.ErrorCode
		}
		if upd.ErrorDetail != "" {
			updates["error_detail"] = upd.ErrorDetail
		}
		if models.IsTerminalStatus(upd.Status) && rec.RespondedAt == nil {
			updates["responded_at"] = now
		}

		return tx.Model(&rec).Updates(updates).Error
	})
}

// GetRequest loads a single audit record by id.
func (l *Ledger) GetRequest(id uint) (*models.RequestRecord, error) {
	var rec models.RequestRecord
	if err := l.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("request record not found")
		}
		return nil, err
	}
	return &rec, nil
}

// Pending lists a guild's requests awaiting a human decision, newest first.
func (l *Ledger) Pending(guildID string) ([]models.RequestRecord, error) {
	var recs []models.RequestRecord
	err := l.db.Where("guild_id = ? AND status = ?", guildID, models.StatusPendingApproval).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

// History returns a guild's audit records, newest first, optionally filtered
// by status and command kind.
func (l *Ledger) History(guildID string, limit int, status, kind string) ([]models.RequestRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := l.db.Where("guild_id = ?", guildID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if kind != "" {
		query = query.Where("command_kind = ?", kind)
	}
	var recs []models.RequestRecord
	err := query.Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// GuildAnalytics aggregates a guild's audit log.
type GuildAnalytics struct {
	StatusCounts map[string]int64 `json:"status_counts"`
	TokenTotal   int64            `json:"token_total"`
	TotalCostUSD float64          `json:"total_cost_usd"`
}

// Analytics computes request counts per status plus token and cost totals.
func (l *Ledger) Analytics(guildID string) (*GuildAnalytics, error) {
	data := &GuildAnalytics{StatusCounts: map[string]int64{}}

	type statusRow struct {
		Status string
		Cnt    int64
	}
	var rows []statusRow
	if err := l.db.Model(&models.RequestRecord{}).
		Select("status, COUNT(*) as cnt").
		Where("guild_id = ?", guildID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		data.StatusCounts[row.Status] = row.Cnt
	}

	type totalsRow struct {
		TokenTotal   int64
		TotalCostUSD float64
	}
	var totals totalsRow
	if err := l.db.Model(&models.RequestRecord{}).
		Select("COALESCE(SUM(total_tokens), 0) as token_total, COALESCE(SUM(estimated_cost_usd), 0) as total_cost_usd").
		Where("guild_id = ?", guildID).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	data.TokenTotal = totals.TokenTotal
	data.TotalCostUSD = totals.TotalCostUSD
	return data, nil
}

// PurgeTerminalBefore deletes terminal audit records created before the
// cutoff. Pending records are never purged.
func (l *Ledger) PurgeTerminalBefore(cutoff time.Time) (int64, error) {
	result := l.db.Where("created_at < ? AND status <> ?", cutoff, models.StatusPendingApproval).
		Delete(&models.RequestRecord{})
	return result.RowsAffected, result.Error
}
