package services

import (
	"context"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/pkg/logger"
	"github.com/promptgate/promptgate/pkg/response"
)

// Moderation resolves queued requests. A record may only leave
// pending_approval; any operation on a record in another state fails with a
// conflict error and mutates nothing. Every terminal transition triggers
// exactly one outbound delivery to the originating channel.
type Moderation struct {
	ledger   *Ledger
	policies *PolicyStore
	gateway  ChatGateway
	delivery Delivery
	cfg      *config.Config
}

func NewModeration(ledger *Ledger, policies *PolicyStore, gateway ChatGateway, delivery Delivery, cfg *config.Config) *Moderation {
	return &Moderation{ledger: ledger, policies: policies, gateway: gateway, delivery: delivery, cfg: cfg}
}

// Resolution reports how a queued request was resolved.
type Resolution struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// ApproveViaAI re-invokes the gateway for a queued request using the guild's
// current policy. On success the usage ledger is incremented; on failure the
// record lands in error. The operator is stamped as approver either way.
func (m *Moderation) ApproveViaAI(ctx context.Context, recordID uint, approverID string) (*Resolution, error) {
	rec, err := m.pendingRecord(recordID)
	if err != nil {
		return nil, err
	}

	policy, err := m.policies.Get(rec.GuildID)
	if err != nil {
		return nil, err
	}
	systemPrompt := policy.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = m.cfg.SystemPrompt()
	}

	result, err := m.gateway.Chat(ctx, &ChatRequest{
		SystemPrompt: systemPrompt,
		UserContent:  rec.UserContent,
		Temperature:  policy.Temperature,
		MaxTokens:    policy.MaxCompletionTokens,
	})
	if err != nil {
		logger.Error().Err(err).Uint("record_id", recordID).Msg("approval gateway call failed")
		if updErr := m.ledger.UpdateRequestStatus(recordID, StatusUpdate{
			Status:      models.StatusError,
			Decision:    models.DecisionGrok,
			ApprovedBy:  approverID,
			ErrorCode:   ErrCodeGrok,
			ErrorDetail: err.Error(),
		}); updErr != nil {
			return nil, updErr
		}
		return nil, response.NewBadGateway("ai gateway call failed")
	}

	upd := StatusUpdate{
		Status:           models.StatusApprovedGrok,
		Decision:         models.DecisionGrok,
		ResponseContent:  result.Content,
		PromptTokens:     &result.PromptTokens,
		CompletionTokens: &result.CompletionTokens,
		TotalTokens:      &result.TotalTokens,
		ApprovedBy:       approverID,
	}
	if cost := estimateCost(result.PromptTokens, result.CompletionTokens); cost != nil {
		upd.EstimatedCostUSD = cost
	}
	// Charge usage only once the transition has committed; a concurrent
	// resolution that wins the record must not leave tokens billed for it.
	if err := m.ledger.UpdateRequestStatus(recordID, upd); err != nil {
		return nil, err
	}
	if result.TotalTokens > 0 {
		if err := m.ledger.IncrementChatUsage(rec.GuildID, rec.UserID, int64(result.TotalTokens)); err != nil {
			return nil, err
		}
	}

	reply := m.cfg.FormatReply(result.Content)
	m.deliver(ctx, rec, reply)
	return &Resolution{Status: models.StatusApprovedGrok, Reply: reply}, nil
}

// ApproveManually resolves a queued request with operator-supplied reply
// text (or the canned default). No gateway call, no token usage.
func (m *Moderation) ApproveManually(ctx context.Context, recordID uint, approverID, replyText string) (*Resolution, error) {
	rec, err := m.pendingRecord(recordID)
	if err != nil {
		return nil, err
	}

	if replyText == "" {
		replyText = m.cfg.Message("manual_reply_default")
	}
	if err := m.ledger.UpdateRequestStatus(recordID, StatusUpdate{
		Status:      models.StatusApprovedManual,
		Decision:    models.DecisionManual,
		ApprovedBy:  approverID,
		ManualReply: replyText,
	}); err != nil {
		return nil, err
	}

	reply := m.cfg.FormatReply(replyText)
	m.deliver(ctx, rec, reply)
	return &Resolution{Status: models.StatusApprovedManual, Reply: reply}, nil
}

// Reject resolves a queued request negatively, with an optional reason.
func (m *Moderation) Reject(ctx context.Context, recordID uint, approverID, reason string) (*Resolution, error) {
	rec, err := m.pendingRecord(recordID)
	if err != nil {
		return nil, err
	}

	replyText := reason
	if replyText == "" {
		replyText = m.cfg.Message("rejection_default")
	}
	upd := StatusUpdate{
		Status:     models.StatusRejected,
		Decision:   models.DecisionReject,
		ApprovedBy: approverID,
	}
	if reason != "" {
		upd.ErrorDetail = reason
	}
	if err := m.ledger.UpdateRequestStatus(recordID, upd); err != nil {
		return nil, err
	}

	reply := m.cfg.FormatReply(replyText)
	m.deliver(ctx, rec, reply)
	return &Resolution{Status: models.StatusRejected, Reply: reply}, nil
}

// pendingRecord loads a record and verifies it still awaits a decision.
func (m *Moderation) pendingRecord(recordID uint) (*models.RequestRecord, error) {
	rec, err := m.ledger.GetRequest(recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusPendingApproval {
		return nil, response.NewConflict("request is not pending approval")
	}
	return rec, nil
}

// deliver sends the reply to the originating channel, mentioning the
// requester. Failures are logged only; the terminal state already committed
// is authoritative.
func (m *Moderation) deliver(ctx context.Context, rec *models.RequestRecord, content string) {
	if err := m.delivery.Send(ctx, rec.ChannelID, content, rec.UserID); err != nil {
		logger.Error().Err(err).
			Uint("record_id", rec.ID).
			Str("channel_id", rec.ChannelID).
			Msg("outbound delivery failed")
	}
}
