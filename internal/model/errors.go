package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, member, record, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeWrongCredentials   = "WRONG_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeMemberNotOwned     = "MEMBER_NOT_OWNED"
	ErrCodeMemberLimit        = "MEMBER_LIMIT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewMissingCredentialsError は認証情報未提供エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredentials,
		Message:  "認証情報がありません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewWrongCredentialsError は認証情報不正エラーを生成する。
// ネットワーク障害とコード不正は意図的に区別しない。
func NewWrongCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongCredentials,
		Message:  "認証情報が正しくありません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidTokenError はトークン不正エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMemberNotOwnedError は所有権チェック失敗エラーを生成する。
// 成員が存在しないのか他ユーザーの所有なのかは意図的に区別しない。
func NewMemberNotOwnedError() *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotOwned,
		Message:  "メンバーはこのユーザーに属していません。",
		Category: "member",
		Action:   "メンバーIDを確認してください。",
	}
}

// NewMemberLimitError は成員数上限エラーを生成する。
func NewMemberLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeMemberLimit,
		Message:  fmt.Sprintf("メンバーの登録は最大%d名までです。", limit),
		Category: "member",
		Action:   "不要なメンバーを削除してから登録してください。",
	}
}

// NewNotFoundError は対象未検出エラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "対象が見つかりません。",
		Category: "record",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが正しくありません: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
