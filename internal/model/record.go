package model

import "time"

// Record は1回分の血圧測定値を表す。
// 所属する成員を経由してのみ作成・更新・削除され、
// すべての変更は親MemberのUpdatedAtのタッチを伴う。
type Record struct {
	ID        string
	MemberID  string
	Systolic  int
	Diastolic int
	Pulse     int
	RecordAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecordInput はレコード作成・更新の入力値。
type NewRecordInput struct {
	Systolic  int
	Diastolic int
	Pulse     int
	RecordAt  time.Time
}
