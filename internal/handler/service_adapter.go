package handler

import (
	"context"

	"github.com/hitoshi/bprecord/internal/auth"
	"github.com/hitoshi/bprecord/internal/model"
)

// AuthServiceAdapter は auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	svc *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(svc *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{svc: svc}
}

// Login はログインを処理しhandlerの結果型で返す。
func (a *AuthServiceAdapter) Login(ctx context.Context, code string) (*LoginResult, error) {
	result, err := a.svc.Login(ctx, code)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
	}, nil
}

// GetUser はユーザー情報をhandlerレスポンス型で返す。
// session_keyはここで落とす。
func (a *AuthServiceAdapter) GetUser(ctx context.Context, userID string) (*userResponse, error) {
	user, err := a.svc.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &userResponse{
		ID:        user.ID,
		OpenID:    user.OpenID,
		CreatedAt: model.Timestamp(user.CreatedAt),
		UpdatedAt: model.Timestamp(user.UpdatedAt),
	}, nil
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*AuthServiceAdapter)(nil)
