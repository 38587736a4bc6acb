// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/bprecord/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// UpsertByOpenID はopenidをキーにユーザーをUPSERTする。
	// 未登録なら渡されたユーザーを作成し、登録済みならsession_keyと
	// updated_atを更新する。確定した行を返す。
	UpsertByOpenID(ctx context.Context, user *model.User) (*model.User, error)
}

// MemberRepository は成員データとユーザー・成員リンクの永続化インターフェース。
// 複数文の整合性ルール（人数上限、カスケード削除）はすべて
// 単一トランザクション内の明示的な文の並びとして実装する。
type MemberRepository interface {
	// FindByID は指定IDの成員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// FindLink は(user_id, member_id)のリンク行を取得する。見つからない場合はnilを返す。
	FindLink(ctx context.Context, userID, memberID string) (*model.UserMember, error)

	// CreateWithLink は成員とリンク行を同一トランザクションで作成する。
	// トランザクション内で現在のリンク数を数え、maxMembers以上なら
	// 書き込みを行わずMEMBER_LIMITエラーで中断する。
	CreateWithLink(ctx context.Context, member *model.Member, userID string, maxMembers int) error

	// Update は成員の名前・メモを更新し、updated_atをタッチする。
	// 更新後の行を返す。見つからない場合はnilを返す。
	Update(ctx context.Context, memberID, name string, memo *string) (*model.Member, error)

	// DeleteCascade は成員・所属レコード・リンク行を同一トランザクションで削除する。
	// 削除順: records → user_member → members。リンク行の不在は許容する。
	// いずれかの文が失敗した場合は全体をロールバックする。
	DeleteCascade(ctx context.Context, userID, memberID string) error

	// ListByUserID はユーザーの管理成員一覧をupdated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Member, error)
}

// RecordRepository は血圧レコードの永続化インターフェース。
// レコードへの書き込みは親成員のupdated_atのタッチと
// 同一トランザクションで対になる。
type RecordRepository interface {
	// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Record, error)

	// CreateWithTouch はレコードを作成し、親成員をタッチする。
	// レコードのINSERTが失敗した場合はタッチせず中断する。
	CreateWithTouch(ctx context.Context, record *model.Record) error

	// UpdateWithTouch はレコードを更新し（member_idの付け替えを含む）、
	// 更新後の親成員をタッチする。更新後の行を返す。見つからない場合はnilを返す。
	UpdateWithTouch(ctx context.Context, record *model.Record) (*model.Record, error)

	// DeleteWithTouch はレコードを削除する。削除前にレコードを引き、
	// 見つかった場合はその親成員をタッチする。見つからなくても削除文は
	// 実行し、影響行数を返す（存在しないIDの削除はエラーではない）。
	DeleteWithTouch(ctx context.Context, recordID string) (int64, error)

	// ListByMemberSince は成員のレコードのうちrecord_atがsince以降のものを
	// record_at降順・updated_at降順で返す。
	ListByMemberSince(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error)
}
