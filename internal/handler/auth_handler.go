// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/bprecord/internal/middleware"
	"github.com/hitoshi/bprecord/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はワンタイムコードによるログインを処理する。
	Login(ctx context.Context, code string) (*LoginResult, error)
	// GetUser は認証済みユーザー自身の情報を取得する。
	GetUser(ctx context.Context, userID string) (*userResponse, error)
}

// LoginMetrics はログイン結果のメトリクス収集インターフェース。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// LoginResult はログイン成功時のトークン情報。
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   int64 // 有効期限（UNIX秒）
}

// AuthHandler はログインとユーザー情報のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetrics) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Code string `json:"code"`
}

// loginResponse はログイン成功時のAPIレスポンス。
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // 有効期限までの秒数
}

// userResponse はユーザー情報のAPIレスポンス。
// session_keyは秘匿情報のため返さない。
type userResponse struct {
	ID        string          `json:"id"`
	OpenID    string          `json:"openid"`
	CreatedAt model.Timestamp `json:"created_at"`
	UpdatedAt model.Timestamp `json:"updated_at"`
}

// Login はワンタイムコードによるログインを処理する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Code)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresAt - time.Now().Unix(),
	})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /api/user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialsError())
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
