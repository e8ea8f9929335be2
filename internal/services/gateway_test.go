package services

import (
	"context"
	"testing"
	"time"

	"github.com/promptgate/promptgate/internal/config"
)

func TestLLMGateway_StubWithoutAPIKey(t *testing.T) {
	gateway := NewLLMGateway(&config.AIConfig{Provider: "openai"})

	result, err := gateway.Chat(context.Background(), &ChatRequest{
		SystemPrompt: "be helpful",
		UserContent:  "hello",
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content == "" {
		t.Error("stub reply should not be empty")
	}
	if result.TotalTokens != 0 {
		t.Errorf("stub TotalTokens = %d, expected 0", result.TotalTokens)
	}
}

func TestLLMGateway_Timeout(t *testing.T) {
	tests := []struct {
		name     string
		timeoutS float64
		expected time.Duration
	}{
		{"default", 0, 30 * time.Second},
		{"negative falls back", -1, 30 * time.Second},
		{"explicit", 90, 90 * time.Second},
		{"fractional", 0.5, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := NewLLMGateway(&config.AIConfig{TimeoutS: tt.timeoutS})
			if got := gateway.timeout(); got != tt.expected {
				t.Errorf("timeout() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
