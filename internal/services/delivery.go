package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/pkg/logger"
)

// Delivery sends a resolved reply back to the originating channel. The
// moderation queue treats it as fire-and-forget: a failed send is logged but
// never rolls back the already-committed decision.
type Delivery interface {
	Send(ctx context.Context, channelID, content, mentionUserID string) error
}

// DiscordDelivery posts messages through the Discord REST API using a bot
// token. With no token configured sends are skipped with a warning.
type DiscordDelivery struct {
	cfg    *config.DiscordConfig
	client *http.Client
}

func NewDiscordDelivery(cfg *config.DiscordConfig) *DiscordDelivery {
	return &DiscordDelivery{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DiscordDelivery) Send(ctx context.Context, channelID, content, mentionUserID string) error {
	if d.cfg.BotToken == "" {
		logger.Warn().Str("channel_id", channelID).Msg("discord token missing, skipping send")
		return nil
	}

	if mentionUserID != "" {
		content = fmt.Sprintf("<@%s> %s", mentionUserID, content)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"content": content,
		// Client-generated nonce lets Discord dedupe a resent request.
		"nonce": uuid.New().String(),
	})
	if err != nil {
		return err
	}

	base := d.cfg.APIBase
	if base == "" {
		base = "https://discord.com/api/v10"
	}
	endpoint := fmt.Sprintf("%s/channels/%s/messages", base, channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.cfg.BotToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord send failed: %d - %s", resp.StatusCode, string(body))
	}
	return nil
}
