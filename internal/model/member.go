package model

import "time"

// Member は血圧を記録する対象の成員を表す。
// UpdatedAtは所属レコードの作成・更新・削除のたびにタッチされる
// 活動シグナルであり、成員自身の属性変更とは独立している。
type Member struct {
	ID        string
	Name      string
	Memo      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserMember はユーザーと成員の管理関係を表すリンク行。
// (UserID, MemberID)の複合キーで一意。この行の存在が
// 成員・レコード操作の唯一の認可根拠となる。
type UserMember struct {
	UserID    string
	MemberID  string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
