package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bprecord/internal/model"
	"github.com/hitoshi/bprecord/internal/repository"
)

// IdentityExchanger はワンタイムコードを外部identityに交換するインターフェース。
type IdentityExchanger interface {
	Code2Session(ctx context.Context, code string) (*WxSession, error)
}

// TokenIssuer はセッショントークンの発行インターフェース。
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt int64, err error)
}

// LoginResult はログイン成功時に返すトークン情報。
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   int64 // 有効期限（UNIX秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	exchanger IdentityExchanger
	issuer    TokenIssuer
	userRepo  repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(exchanger IdentityExchanger, issuer TokenIssuer, userRepo repository.UserRepository) *Service {
	return &Service{
		exchanger: exchanger,
		issuer:    issuer,
		userRepo:  userRepo,
	}
}

// Login はワンタイムコードによるログインを処理する。
// 識別子交換 → openidをキーにユーザーをUPSERT → トークン発行の順に進む。
// 交換の失敗はそのまま呼び出し側へ伝播し、永続化の失敗は内部エラーとなる。
func (s *Service) Login(ctx context.Context, code string) (*LoginResult, error) {
	session, err := s.exchanger.Code2Session(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user, err := s.userRepo.UpsertByOpenID(ctx, &model.User{
		ID:         uuid.New().String(),
		OpenID:     session.OpenID,
		SessionKey: session.SessionKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("ユーザーのUPSERTに失敗しました: %w", err)
	}

	tokenString, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// GetUser は認証済みユーザー自身の情報を取得する。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError()
	}
	return user, nil
}
