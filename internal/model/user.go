// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 初回ログイン時にWeChatのopenidをキーとして自動作成され、
// 以降のログインではsession_keyが更新される。通常フローでは削除されない。
type User struct {
	ID         string
	OpenID     string
	SessionKey string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
