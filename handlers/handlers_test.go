package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"cardsavvy/api/chat"
	"cardsavvy/api/config"
	"cardsavvy/api/models"
	"cardsavvy/api/recommend"
	"cardsavvy/api/storage"
	"cardsavvy/api/vector"
	"cardsavvy/api/worker"
)

// fixedCompleter answers every model call with the same reply.
type fixedCompleter struct {
	reply string
}

func (f *fixedCompleter) Complete(context.Context, string, string, float64, int) (string, error) {
	return f.reply, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, 1536), nil
}

// countingScorer scores every candidate at a fixed value and counts calls.
type countingScorer struct {
	mu    sync.Mutex
	calls int
}

func (s *countingScorer) ScoreCandidate(_ context.Context, _ *models.FinancialProfile, doc models.CardDocument) (models.CardRecommendation, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	return models.CardRecommendation{
		CardName:    doc.CardName,
		Issuer:      doc.Issuer,
		CardType:    doc.CardType,
		MatchScore:  (n * 17) % 101,
		MatchReason: "matches your spending",
	}, nil
}

type testAPI struct {
	router *gin.Engine
	store  *storage.Memory
	scorer *countingScorer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		StorageBackend:      config.BackendMemory,
		RetrievalMode:       config.RetrievalSimilarity,
		RecommendationLimit: 7,
		SessionSecret:       "test-session-secret",
		HeaderFallback:      true,
		CORSOrigins:         "http://localhost:3000",
		ChatWorkers:         1,
	}

	store := storage.NewMemory()
	scorer := &countingScorer{}
	pipeline := recommend.New(fixedEmbedder{}, scorer, vector.NewStaticSource(), cfg.RetrievalMode, cfg.RecommendationLimit)
	assistant := chat.NewAssistant(&fixedCompleter{
		reply: `{"primary_context":"general","intent":"chat","confidence":0.8,"entities":{}}`,
	}, store)
	pool := worker.NewPool(cfg.ChatWorkers, assistant)
	pool.Start()
	t.Cleanup(pool.Stop)

	api := New(store, pipeline, assistant, pool, cfg)
	return &testAPI{router: api.Router(), store: store, scorer: scorer}
}

func (ta *testAPI) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func validProfileBody() map[string]any {
	return map[string]any{
		"annual_income":               1500000,
		"credit_score":                760,
		"monthly_spending":            map[string]float64{"dining": 8000, "travel": 20000},
		"primary_spending_categories": []string{"travel", "dining"},
		"travel_frequency":            "frequently",
		"dining_frequency":            "occasionally",
		"online_shopping_pct":         70,
		"in_store_shopping_pct":       30,
	}
}

func TestHealthAndCatalogsArePublic(t *testing.T) {
	ta := newTestAPI(t)

	for _, path := range []string{"/api/health", "/api/flights", "/api/hotels", "/api/shopping-offers", "/api/shopping", "/api/metrics"} {
		w := ta.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	ta := newTestAPI(t)

	for _, path := range []string{"/api/cards", "/api/financial-profile", "/api/recommendations", "/api/chat"} {
		w := ta.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without identity = %d, want 401", path, w.Code)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "longenough",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body.String())
	}
	user := decode[models.User](t, w)
	if user.PasswordHash != "" {
		t.Error("password hash leaked in register response")
	}

	w = ta.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "longenough",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", w.Code)
	}

	w = ta.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password register = %d, want 400", w.Code)
	}

	w = ta.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "longenough",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login = %d: %s", w.Code, w.Body.String())
	}

	// Wrong password and unknown user must be indistinguishable.
	wrongPw := ta.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrongpassword",
	})
	unknown := ta.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "wrongpassword",
	})
	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("failed logins = %d, %d, want 401", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Errorf("failed-login bodies differ: %q vs %q", wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestCardLifecycle(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodPost, "/api/cards", "alice", map[string]any{
		"card_name": "Axis Atlas", "issuer": "Axis Bank", "points_balance": 1200,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create card = %d: %s", w.Code, w.Body.String())
	}
	card := decode[models.CreditCard](t, w)

	w = ta.do(t, http.MethodPost, "/api/cards", "alice", map[string]any{
		"card_name": "Bad", "issuer": "Bank", "points_balance": -5,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative points = %d, want 400", w.Code)
	}

	w = ta.do(t, http.MethodGet, "/api/cards", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	if cards := decode[[]models.CreditCard](t, w); len(cards) != 1 {
		t.Errorf("got %d cards, want 1", len(cards))
	}

	// Another user cannot see or delete the card.
	w = ta.do(t, http.MethodGet, "/api/cards", "bob", nil)
	if cards := decode[[]models.CreditCard](t, w); len(cards) != 0 {
		t.Errorf("bob sees %d cards, want 0", len(cards))
	}
	w = ta.do(t, http.MethodDelete, "/api/cards/"+card.ID, "bob", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user delete = %d, want 404", w.Code)
	}

	w = ta.do(t, http.MethodDelete, "/api/cards/"+card.ID, "alice", nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	w = ta.do(t, http.MethodDelete, "/api/cards/"+card.ID, "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestProfileSubmitAndMerge(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodGet, "/api/financial-profile", "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("profile before submit = %d, want 404", w.Code)
	}

	bad := validProfileBody()
	bad["credit_score"] = 900
	w = ta.do(t, http.MethodPost, "/api/financial-profile", "alice", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid profile = %d, want 400", w.Code)
	}
	errResp := decode[map[string]any](t, w)
	if _, ok := errResp["fields"]; !ok {
		t.Errorf("validation response carries no field map: %v", errResp)
	}

	w = ta.do(t, http.MethodPost, "/api/financial-profile", "alice", validProfileBody())
	if w.Code != http.StatusOK {
		t.Fatalf("submit = %d: %s", w.Code, w.Body.String())
	}

	// Resubmit without the travel category: it stays in the map at zero.
	second := validProfileBody()
	second["monthly_spending"] = map[string]float64{"dining": 9000}
	w = ta.do(t, http.MethodPost, "/api/financial-profile", "alice", second)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	profile := decode[models.FinancialProfile](t, w)
	if got, ok := profile.MonthlySpending["travel"]; !ok || got != 0 {
		t.Errorf("deselected travel spending = %v (present %v), want 0 kept in map", got, ok)
	}
	if profile.MonthlySpending["dining"] != 9000 {
		t.Errorf("dining spending = %v, want 9000", profile.MonthlySpending["dining"])
	}
}

func TestRecommendationsFlow(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodGet, "/api/recommendations", "alice", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("recommendations without profile = %d, want 400", w.Code)
	}

	if w := ta.do(t, http.MethodPost, "/api/financial-profile", "alice", validProfileBody()); w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}

	w = ta.do(t, http.MethodGet, "/api/recommendations", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recommendations = %d: %s", w.Code, w.Body.String())
	}
	recs := decode[[]models.CardRecommendation](t, w)
	if len(recs) == 0 || len(recs) > 7 {
		t.Fatalf("got %d recommendations, want 1..7", len(recs))
	}
	for i, rec := range recs {
		if rec.MatchScore < 0 || rec.MatchScore > 100 {
			t.Errorf("score %d out of range for %s", rec.MatchScore, rec.CardName)
		}
		if i > 0 && rec.MatchScore > recs[i-1].MatchScore {
			t.Errorf("recommendations not sorted at %d", i)
		}
		if rec.MatchReason == "" {
			t.Errorf("empty reason for %s", rec.CardName)
		}
	}

	// A second GET serves the stored set without re-scoring.
	scored := ta.scorer.calls
	w = ta.do(t, http.MethodGet, "/api/recommendations", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	if ta.scorer.calls != scored {
		t.Errorf("second GET re-scored: %d -> %d calls", scored, ta.scorer.calls)
	}

	// Regenerate always re-runs the pipeline.
	w = ta.do(t, http.MethodPost, "/api/recommendations/regenerate", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	if ta.scorer.calls == scored {
		t.Error("regenerate did not re-run the pipeline")
	}
}

func TestChatFlow(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodGet, "/api/chat", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	msgs := decode[[]models.ChatMessage](t, w)
	if len(msgs) != 1 || msgs[0].Role != models.RoleAssistant {
		t.Fatalf("initial history = %v, want one assistant welcome", msgs)
	}

	w = ta.do(t, http.MethodPost, "/api/chat", "alice", map[string]string{"message": "which card for dining?"})
	if w.Code != http.StatusOK {
		t.Fatalf("send = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]json.RawMessage](t, w)
	if _, ok := resp["message"]; !ok {
		t.Error("send response has no message")
	}
	if _, ok := resp["classification"]; !ok {
		t.Error("send response has no classification")
	}

	w = ta.do(t, http.MethodGet, "/api/chat", "alice", nil)
	msgs = decode[[]models.ChatMessage](t, w)
	if len(msgs) != 3 {
		t.Errorf("history after one turn = %d messages, want 3", len(msgs))
	}

	w = ta.do(t, http.MethodPost, "/api/chat?stream=true", "alice", map[string]string{"message": "queued turn"})
	if w.Code != http.StatusAccepted {
		t.Errorf("streamed send = %d, want 202", w.Code)
	}

	w = ta.do(t, http.MethodDelete, "/api/chat", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	msgs = decode[[]models.ChatMessage](t, w)
	if len(msgs) != 1 || msgs[0].Role != models.RoleAssistant {
		t.Errorf("clear returned %v, want exactly one welcome", msgs)
	}

	w = ta.do(t, http.MethodGet, "/api/chat/title", "alice", nil)
	if w.Code != http.StatusOK {
		t.Errorf("title = %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMe(t *testing.T) {
	ta := newTestAPI(t)

	w := ta.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "longenough",
	})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}
	user := decode[models.User](t, w)

	w = ta.do(t, http.MethodGet, "/api/auth/me", user.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d: %s", w.Code, w.Body.String())
	}
	got := decode[models.User](t, w)
	if got.Username != "carol" {
		t.Errorf("me returned %q", got.Username)
	}

	// Header identity for a user that does not exist.
	w = ta.do(t, http.MethodGet, "/api/auth/me", "ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("me for unknown id = %d, want 404", w.Code)
	}
}

func TestChatTurnsAreIsolatedPerUser(t *testing.T) {
	ta := newTestAPI(t)

	for i := 0; i < 2; i++ {
		user := fmt.Sprintf("user-%d", i)
		w := ta.do(t, http.MethodPost, "/api/chat", user, map[string]string{"message": "hello from " + user})
		if w.Code != http.StatusOK {
			t.Fatalf("send for %s = %d", user, w.Code)
		}
	}

	w := ta.do(t, http.MethodGet, "/api/chat", "user-0", nil)
	msgs := decode[[]models.ChatMessage](t, w)
	for _, msg := range msgs {
		if msg.UserID != "user-0" {
			t.Errorf("user-0 history contains message for %q", msg.UserID)
		}
	}
}
