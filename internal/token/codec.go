// Package token はセッショントークンの発行と検証を提供する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/bprecord/internal/model"
)

// Codec はHS256署名付きJWTのセッショントークンコーデック。
// 署名鍵は起動時に1回だけ設定され、以降変更されない。
type Codec struct {
	secret []byte
	expire time.Duration
	now    func() time.Time // テスト用に差し替え可能
}

// NewCodec はCodecを生成する。
// secretが空の場合はエラーを返す（起動時に致命的エラーとして扱うこと）。
func NewCodec(secret string, expireSeconds int) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	return &Codec{
		secret: []byte(secret),
		expire: time.Duration(expireSeconds) * time.Second,
		now:    time.Now,
	}, nil
}

// Issue はユーザーIDを主体とするトークンを発行する。
// 戻り値のexpiresAtは有効期限のUNIX秒。
func (c *Codec) Issue(userID string) (string, int64, error) {
	expiresAt := c.now().Add(c.expire)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", 0, fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}

	return signed, expiresAt.Unix(), nil
}

// Verify はトークンの署名と有効期限を検証し、ユーザーIDを返す。
// 期限切れはTOKEN_EXPIRED、署名不一致や構造不正はINVALID_TOKENとして返す。
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.NewTokenExpiredError()
		}
		return "", model.NewInvalidTokenError()
	}

	if claims.Subject == "" {
		return "", model.NewInvalidTokenError()
	}

	return claims.Subject, nil
}
