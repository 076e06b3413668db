package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cardsavvy/api/config"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://issuer.test/"
)

func authTestRouter(t *testing.T, store storage.Storage, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("session-secret"))))
	r.Use(Auth(store, cfg))
	r.GET("/whoami", func(c *gin.Context) {
		userID, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestAuthRejectsAnonymous(t *testing.T) {
	cfg := &config.Config{AuthJWTSecret: testSecret, AuthIssuer: testIssuer, HeaderFallback: false}
	r := authTestRouter(t, storage.NewMemory(), cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthBearerToken(t *testing.T) {
	store := storage.NewMemory()
	cfg := &config.Config{AuthJWTSecret: testSecret, AuthIssuer: testIssuer, HeaderFallback: false}
	r := authTestRouter(t, store, cfg)

	t.Run("synced identity accepted", func(t *testing.T) {
		err := store.CreateUser(context.Background(), &models.User{ID: "u1", Username: "alice", AuthSubject: "auth0|alice"})
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "auth0|alice"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
	})

	t.Run("valid token for unsynced identity rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "auth0|stranger"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestAuthHeaderFallback(t *testing.T) {
	cfg := &config.Config{AuthJWTSecret: testSecret, AuthIssuer: testIssuer, HeaderFallback: true}
	r := authTestRouter(t, storage.NewMemory(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "demo-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// The header identity is promoted into a session cookie; the follow-up
	// request authenticates without the header.
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued for header identity")
	}
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status with session cookie = %d, want 200", w.Code)
	}
}

func TestAuthHeaderFallbackDisabled(t *testing.T) {
	cfg := &config.Config{AuthJWTSecret: testSecret, AuthIssuer: testIssuer, HeaderFallback: false}
	r := authTestRouter(t, storage.NewMemory(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "demo-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when the fallback is disabled", w.Code)
	}
}

func TestParseIdentityToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		claims, err := ParseIdentityToken(signToken(t, "auth0|alice"), testSecret, testIssuer)
		if err != nil {
			t.Fatalf("ParseIdentityToken() error = %v", err)
		}
		if claims.Subject != "auth0|alice" {
			t.Errorf("Subject = %q", claims.Subject)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := ParseIdentityToken(signToken(t, "auth0|alice"), "other-secret", testIssuer); err == nil {
			t.Error("expected an error for a token signed with another secret")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		if _, err := ParseIdentityToken(signToken(t, "auth0|alice"), testSecret, "https://other.test/"); err == nil {
			t.Error("expected an error for a foreign issuer")
		}
	})

	t.Run("no secret configured", func(t *testing.T) {
		if _, err := ParseIdentityToken(signToken(t, "auth0|alice"), "", testIssuer); err == nil {
			t.Error("expected an error when verification is unconfigured")
		}
	})
}
