package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newUsageRouter(t *testing.T) (*gin.Engine, *services.Ledger) {
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

	ledger := services.NewLedger(db)
	handler := NewHistoryHandler(ledger)

	router := gin.New()
	router.GET("/api/guilds/:guild_id/usage", handler.GuildUsage)
	router.GET("/api/guilds/:guild_id/usage/:user_id", handler.Usage)
	return router, ledger
}

func getUsage(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHistoryHandler_GuildUsage(t *testing.T) {
	router, ledger := newUsageRouter(t)

	if err := ledger.IncrementChatUsage("g1", "u1", 100); err != nil {
		t.Fatalf("IncrementChatUsage() error = %v", err)
	}
	if err := ledger.IncrementChatUsage("g1", "u2", 200); err != nil {
		t.Fatalf("IncrementChatUsage() error = %v", err)
	}

	w := getUsage(router, "/api/guilds/g1/usage")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["guild_tokens"] != float64(300) {
		t.Errorf("guild_tokens = %v, expected 300", data["guild_tokens"])
	}
	if data["user_tokens"] != float64(0) {
		t.Errorf("user_tokens = %v, expected 0 on the guild-level route", data["user_tokens"])
	}
}

func TestHistoryHandler_UserUsage(t *testing.T) {
	router, ledger := newUsageRouter(t)

	if err := ledger.IncrementChatUsage("g1", "u1", 100); err != nil {
		t.Fatalf("IncrementChatUsage() error = %v", err)
	}
	if err := ledger.IncrementChatUsage("g1", "u2", 200); err != nil {
		t.Fatalf("IncrementChatUsage() error = %v", err)
	}

	w := getUsage(router, "/api/guilds/g1/usage/u1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["user_tokens"] != float64(100) {
		t.Errorf("user_tokens = %v, expected 100", data["user_tokens"])
	}
	if data["guild_tokens"] != float64(300) {
		t.Errorf("guild_tokens = %v, expected 300", data["guild_tokens"])
	}
}
