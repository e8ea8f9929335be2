package services

import (
	"context"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/pkg/logger"
)

// Model pricing in USD per 1,000,000 tokens. Prompt (input) tokens are
// charged at a different rate than completion (output) tokens.
const (
	promptPricePerMToken     = 0.30
	completionPricePerMToken = 0.50
)

// Error codes recorded on denied or failed requests, alongside the
// validator's reason codes.
const (
	ErrCodeDuplicate   = "duplicate"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeChatBudget  = "chat_budget"
	ErrCodeGrok        = "grok_error"
)

// AskRequest is one inbound user request as seen by the admission pipeline.
type AskRequest struct {
	GuildID           string
	ChannelID         string
	UserID            string
	ExternalMessageID string
	Content           string
	IsAdmin           bool
}

// AskResult is the pipeline's answer: the (formatted) reply text, the id of
// the audit record every request leaves behind, and its status.
type AskResult struct {
	Reply     string `json:"reply"`
	RecordID  uint   `json:"record_id"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Pipeline is the admission decision procedure: validation, duplicate
// suppression, rate limiting, budget enforcement, the auto-approval gate,
// and finally the gateway dispatch. Every exit path writes exactly one
// audit record through the Ledger.
type Pipeline struct {
	ledger   *Ledger
	policies *PolicyStore
	gateway  ChatGateway
	cfg      *config.Config
}

func NewPipeline(ledger *Ledger, policies *PolicyStore, gateway ChatGateway, cfg *config.Config) *Pipeline {
	return &Pipeline{ledger: ledger, policies: policies, gateway: gateway, cfg: cfg}
}

// Process runs one request through the admission checks in order; the first
// failing check wins and short-circuits the rest. Callers invoke this once
// per logical request.
func (p *Pipeline) Process(ctx context.Context, req *AskRequest) (*AskResult, error) {
	policy, err := p.policies.Get(req.GuildID)
	if err != nil {
		return nil, err
	}

	if outcome := ValidatePrompt(req.Content, policy.MaxPromptChars); !outcome.OK {
		return p.deny(req, outcome.Reason, p.validationMessage(outcome.Reason, policy.MaxPromptChars))
	}

	// The check-then-record section runs under the per-(guild,user) lock so
	// concurrent identical requests see each other's committed records.
	// Released before any gateway call.
	lock := p.ledger.AdmissionLock(req.GuildID, req.UserID)
	lock.Lock()

	dup, err := p.ledger.HasRecentDuplicate(req.GuildID, req.UserID, req.Content, policy.DuplicateWindowSeconds)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if dup {
		res, err := p.deny(req, ErrCodeDuplicate, p.cfg.Message("duplicate"))
		lock.Unlock()
		return res, err
	}

	recent, err := p.ledger.CountRecent(req.GuildID, req.UserID, models.CommandAsk, policy.AskWindowSeconds)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if recent >= int64(policy.AskMaxPerWindow) {
		res, err := p.deny(req, ErrCodeRateLimited, p.cfg.Message("rate_limit_chat"))
		lock.Unlock()
		return res, err
	}

	usage, err := p.ledger.GetUsage(req.GuildID, req.UserID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if usage.UserTokens >= int64(policy.UserDailyTokenLimit) {
		res, err := p.deny(req, ErrCodeChatBudget, p.cfg.Message("chat_budget_user"))
		lock.Unlock()
		return res, err
	}
	if usage.GuildTokens >= int64(policy.GuildDailyTokenLimit) {
		res, err := p.deny(req, ErrCodeChatBudget, p.cfg.Message("chat_budget_guild"))
		lock.Unlock()
		return res, err
	}

	if policy.AutoApproveEnabled && !(policy.AdminBypassAutoApprove && req.IsAdmin) {
		rec := p.newRecord(req, models.StatusPendingApproval)
		rec.NeedsApproval = true
		if err := p.ledger.RecordRequest(rec); err != nil {
			lock.Unlock()
			return nil, err
		}
		lock.Unlock()
		return &AskResult{
			Reply:    p.cfg.FormatReply(p.cfg.Message("pending_approval_chat")),
			RecordID: rec.ID,
			Status:   models.StatusPendingApproval,
		}, nil
	}
	lock.Unlock()

	systemPrompt := policy.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = p.cfg.SystemPrompt()
	}

	result, err := p.gateway.Chat(ctx, &ChatRequest{
		SystemPrompt: systemPrompt,
		UserContent:  req.Content,
		Temperature:  policy.Temperature,
		MaxTokens:    policy.MaxCompletionTokens,
	})
	if err != nil {
		logger.Error().Err(err).
			Str("guild_id", req.GuildID).
			Str("user_id", req.UserID).
			Msg("gateway call failed")
		rec := p.newRecord(req, models.StatusError)
		rec.ErrorCode = ErrCodeGrok
		rec.ErrorDetail = err.Error()
		if recErr := p.ledger.RecordRequest(rec); recErr != nil {
			return nil, recErr
		}
		return &AskResult{
			Reply:     p.cfg.FormatReply(p.cfg.Message("ai_error_chat")),
			RecordID:  rec.ID,
			Status:    models.StatusError,
			ErrorCode: ErrCodeGrok,
		}, nil
	}

	rec := p.newRecord(req, models.StatusAutoResponded)
	rec.ResponseContent = result.Content
	rec.PromptTokens = &result.PromptTokens
	rec.CompletionTokens = &result.CompletionTokens
	rec.TotalTokens = &result.TotalTokens
	if cost := estimateCost(result.PromptTokens, result.CompletionTokens); cost != nil {
		rec.EstimatedCostUSD = cost
	}
	if err := p.ledger.RecordRequest(rec); err != nil {
		return nil, err
	}
	if result.TotalTokens > 0 {
		if err := p.ledger.IncrementChatUsage(req.GuildID, req.UserID, int64(result.TotalTokens)); err != nil {
			return nil, err
		}
	}

	return &AskResult{
		Reply:    p.cfg.FormatReply(result.Content),
		RecordID: rec.ID,
		Status:   models.StatusAutoResponded,
	}, nil
}

// deny records a policy denial or validation failure as a terminal
// auto_responded record and returns the canned reply.
func (p *Pipeline) deny(req *AskRequest, code, canned string) (*AskResult, error) {
	rec := p.newRecord(req, models.StatusAutoResponded)
	rec.ErrorCode = code
	rec.ErrorDetail = canned
	if err := p.ledger.RecordRequest(rec); err != nil {
		return nil, err
	}
	return &AskResult{
		Reply:     p.cfg.FormatReply(canned),
		RecordID:  rec.ID,
		Status:    models.StatusAutoResponded,
		ErrorCode: code,
	}, nil
}

func (p *Pipeline) newRecord(req *AskRequest, status string) *models.RequestRecord {
	return &models.RequestRecord{
		GuildID:           req.GuildID,
		ChannelID:         req.ChannelID,
		UserID:            req.UserID,
		ExternalMessageID: req.ExternalMessageID,
		CommandKind:       models.CommandAsk,
		UserContent:       req.Content,
		Status:            status,
	}
}

func (p *Pipeline) validationMessage(reason string, maxChars int) string {
	switch reason {
	case ReasonEmpty:
		return p.cfg.Message("empty_input")
	case ReasonTooShort:
		return p.cfg.Message("too_short")
	case ReasonTrivial:
		return p.cfg.Message("trivial_input")
	case ReasonGibberish:
		return p.cfg.Message("gibberish")
	case ReasonTooLong:
		return p.cfg.MessageWithMax("too_long", maxChars)
	default:
		return p.cfg.Message("invalid_input")
	}
}

// estimateCost converts reported token counts into USD. Returns nil when no
// usage was reported at all.
func estimateCost(promptTokens, completionTokens int) *float64 {
	if promptTokens == 0 && completionTokens == 0 {
		return nil
	}
	cost := float64(promptTokens)/1_000_000.0*promptPricePerMToken +
		float64(completionTokens)/1_000_000.0*completionPricePerMToken
	return &cost
}
