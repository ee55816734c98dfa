package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ai-chat/internal/codec"
	"github.com/tbourn/go-ai-chat/internal/config"
	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/services"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ []domain.Message, userText string) (string, error) {
	return "echo: " + userText, nil
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		Auth: config.AuthConfig{
			JWTSecret: "router-test-secret",
			JWTExpiry: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Window:       time.Minute,
			ChatPerMin:   100,
			WritePerMin:  100,
			ReadPerMin:   100,
			MutatePerMin: 100,
		},
	}
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	msgSvc := &services.MessageService{
		DB:        db,
		Codec:     codec.New("router-test"),
		Completer: echoCompleter{},
	}

	r := gin.New()
	cleanup := RegisterRoutes(r, db, msgSvc, testConfig())
	t.Cleanup(cleanup)
	return r
}

func request(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := request(r, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":"longenough"}`, email))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || res.Token == "" {
		t.Fatalf("register response: %s", w.Body.String())
	}
	return res.Token
}

func TestRouter_Health(t *testing.T) {
	r := newTestServer(t)

	w := request(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
}

func TestRouter_UnknownRouteEnvelope(t *testing.T) {
	r := newTestServer(t)

	w := request(r, http.MethodGet, "/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_AuthGate(t *testing.T) {
	r := newTestServer(t)

	w := request(r, http.MethodGet, "/api/conversations", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d; want 401", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}

func TestRouter_FullFlow(t *testing.T) {
	r := newTestServer(t)
	token := register(t, r, "flow@example.com")

	// Create a conversation.
	w := request(r, http.MethodPost, "/api/conversations", token, `{"topic":""}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create conversation: %d %s", w.Code, w.Body.String())
	}
	var conv domain.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil || conv.ID == "" {
		t.Fatalf("conversation body: %s", w.Body.String())
	}

	// Exchange a message.
	w = request(r, http.MethodPost, "/api/chat", token,
		fmt.Sprintf(`{"conversationId":%q,"message":"hello router"}`, conv.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "echo: hello router") {
		t.Fatalf("chat body: %s", w.Body.String())
	}

	// History shows both turns, decoded.
	w = request(r, http.MethodGet, "/api/messages?conversationId="+conv.ID, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("messages: %d %s", w.Code, w.Body.String())
	}
	var page struct {
		Messages   []domain.Message `json:"messages"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Pagination.Total != 2 || len(page.Messages) != 2 {
		t.Fatalf("history = %+v", page)
	}
	if page.Messages[0].Content != "hello router" || page.Messages[1].Content != "echo: hello router" {
		t.Fatalf("contents = %q / %q", page.Messages[0].Content, page.Messages[1].Content)
	}

	// A second account cannot touch the conversation.
	other := register(t, r, "other@example.com")
	w = request(r, http.MethodGet, "/api/messages?conversationId="+conv.ID, other, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign history = %d; want 403", w.Code)
	}
	w = request(r, http.MethodDelete, "/api/conversations/"+conv.ID, other, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete = %d; want 403", w.Code)
	}
}

func TestRouter_ForeignHistoryDisclosesNoMetadata(t *testing.T) {
	r := newTestServer(t)

	victim := register(t, r, "victim@example.com")
	w := request(r, http.MethodPost, "/api/conversations", victim, `{"topic":"private"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create conversation: %d %s", w.Code, w.Body.String())
	}
	var conv domain.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	w = request(r, http.MethodPost, "/api/chat", victim,
		fmt.Sprintf(`{"conversationId":%q,"message":"secret plans"}`, conv.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", w.Code, w.Body.String())
	}

	// The owner's request carries an ETag; capture its shape.
	w = request(r, http.MethodGet, "/api/messages?conversationId="+conv.ID, victim, "")
	ownerETag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || ownerETag == "" {
		t.Fatalf("owner list: %d etag=%q", w.Code, ownerETag)
	}

	// Another account gets a bare 403: no ETag, no count or timestamp.
	attacker := register(t, r, "attacker@example.com")
	w = request(r, http.MethodGet, "/api/messages?conversationId="+conv.ID, attacker, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign list = %d; want 403", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != "" {
		t.Fatalf("ETag disclosed to non-owner: %q", etag)
	}

	// Replaying a known-good ETag must not turn the 403 into a 304.
	req := httptest.NewRequest(http.MethodGet, "/api/messages?conversationId="+conv.ID, nil)
	req.Header.Set("Authorization", "Bearer "+attacker)
	req.Header.Set("If-None-Match", ownerETag)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("conditional foreign list = %d; want 403", rec.Code)
	}
}

func TestRouter_RateLimitEnforced(t *testing.T) {
	// Mount a fresh engine with a tight mutate budget.
	cfg := testConfig()
	cfg.RateLimit.MutatePerMin = 2

	gin.SetMode(gin.TestMode)
	tight := gin.New()

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	msgSvc := &services.MessageService{DB: db, Codec: codec.New("x"), Completer: echoCompleter{}}
	cleanup := RegisterRoutes(tight, db, msgSvc, cfg)
	t.Cleanup(cleanup)

	body := `{"email":"spam@example.com","password":"longenough"}`
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := request(tight, http.MethodPost, "/api/auth/login", "", body)
		codes = append(codes, w.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third mutate call = %v; want 429", codes)
	}
}
