package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bprecord/internal/model"
)

// mockVerifier はTokenVerifierのモック実装。
type mockVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockVerifier) Verify(tokenString string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return "", model.NewInvalidTokenError()
}

// decodeErrorBody はエラーレスポンスのボディをパースするヘルパー。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			if tokenString != "valid-token" {
				t.Errorf("tokenString = %q, want %q", tokenString, "valid-token")
			}
			return "user-123", nil
		},
	}

	var gotUserID string
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-123")
	}
}

// ヘッダー欠落はMISSING_CREDENTIALS
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler := NewAuthMiddleware(&mockVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	result := decodeErrorBody(t, w)
	if result["code"] != model.ErrCodeMissingCredentials {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeMissingCredentials)
	}
}

// Bearer以外の形式はWRONG_CREDENTIALS
func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	for _, header := range []string{"Basic abc123", "Bearer", "Bearer ", "valid-token"} {
		handler := NewAuthMiddleware(&mockVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("handler should not be called for header %q", header)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Code, http.StatusUnauthorized)
		}
		result := decodeErrorBody(t, w)
		if result["code"] != model.ErrCodeWrongCredentials {
			t.Errorf("header %q: code = %q, want %q", header, result["code"], model.ErrCodeWrongCredentials)
		}
	}
}

// 検証エラーのAPIErrorコードがそのままレスポンスに載る
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "", model.NewTokenExpiredError()
		},
	}

	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	result := decodeErrorBody(t, w)
	if result["code"] != model.ErrCodeTokenExpired {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeTokenExpired)
	}
}

func TestUserIDFromContext_NotSet(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	if err == nil {
		t.Fatal("expected error for missing user ID")
	}
}

func TestContextWithUserID_Roundtrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-123")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext failed: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}
