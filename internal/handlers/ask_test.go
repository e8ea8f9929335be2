package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct {
	content string
}

func (g *stubGateway) Chat(ctx context.Context, req *services.ChatRequest) (*services.ChatResult, error) {
	return &services.ChatResult{Content: g.content, TotalTokens: 10}, nil
}

func newAskRouter(t *testing.T) *gin.Engine {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := config.DefaultConfig()
	ledger := services.NewLedger(db)
	policies := services.NewPolicyStore(db, cfg.SystemPrompt())
	pipeline := services.NewPipeline(ledger, policies, &stubGateway{content: "hello back"}, cfg)

	router := gin.New()
	handler := NewAskHandler(db, pipeline)
	router.POST("/api/ask", handler.Ask)
	return router
}

func postAsk(router *gin.Engine, payload map[string]string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAskHandler_Success(t *testing.T) {
	router := newAskRouter(t)

	w := postAsk(router, map[string]string{
		"guild_id":   "g1",
		"channel_id": "c1",
		"user_id":    "u1",
		"content":    "what time is it in tokyo",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["status"] != models.StatusAutoResponded {
		t.Errorf("status = %v, expected %q", data["status"], models.StatusAutoResponded)
	}
	if data["reply"] != "hello back" {
		t.Errorf("reply = %v", data["reply"])
	}
}

func TestAskHandler_DenialStillOK(t *testing.T) {
	router := newAskRouter(t)

	// A denied request is not an HTTP error; the denial rides in the result.
	w := postAsk(router, map[string]string{
		"guild_id": "g1",
		"user_id":  "u1",
		"content":  "hey",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["error_code"] != "too_short" {
		t.Errorf("error_code = %v, expected too_short", data["error_code"])
	}
}

func TestAskHandler_MissingFields(t *testing.T) {
	router := newAskRouter(t)

	w := postAsk(router, map[string]string{"content": "no ids at all here"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}
